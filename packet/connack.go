package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var connackProps = map[wire.PropertyID]bool{
	wire.PropSessionExpiryInterval:           true,
	wire.PropReceiveMaximum:                  true,
	wire.PropMaximumQoS:                      true,
	wire.PropRetainAvailable:                 true,
	wire.PropMaximumPacketSize:               true,
	wire.PropAssignedClientIdentifier:        true,
	wire.PropTopicAliasMaximum:               true,
	wire.PropReasonString:                    true,
	wire.PropUserProperty:                    true,
	wire.PropWildcardSubscriptionAvailable:   true,
	wire.PropSubscriptionIdentifierAvailable: true,
	wire.PropSharedSubscriptionAvailable:     true,
	wire.PropServerKeepAlive:                 true,
	wire.PropResponseInformation:             true,
	wire.PropServerReference:                 true,
	wire.PropAuthenticationMethod:            true,
	wire.PropAuthenticationData:              true,
}

// Connack is the CONNACK control packet. ReasonCode doubles as the 3.1.1
// return code; the two spaces agree for the values 3.1.1 defines (0-5).
type Connack struct {
	Version        Version
	SessionPresent bool
	ReasonCode     wire.ReasonCode
	Properties     wire.Properties // v5 only
}

func (p *Connack) isPacket()    {}
func (p *Connack) Type() Type   { return CONNACK }
func (p *Connack) Ver() Version { return p.Version }

func (p *Connack) validate() error {
	if p.Version == V311 && p.ReasonCode != wire.ReasonSuccess && p.SessionPresent {
		return mqtterr.New(mqtterr.ProtocolError, "session-present must be 0 when return code is non-zero")
	}
	if p.Version == V5 {
		return validateProperties(connackProps, p.Properties)
	}
	return nil
}

func BuildConnack(p Connack) (*Connack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Connack) Size() int {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Connack) Append(buf []byte) ([]byte, error) {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	var err error
	buf, err = appendFixedHeader(buf, CONNACK, 0, rl)
	if err != nil {
		return buf, err
	}
	var ackFlags byte
	if p.SessionPresent {
		ackFlags = 0x01
	}
	buf = append(buf, ackFlags, byte(p.ReasonCode))
	if p.Version == V5 {
		buf, err = p.Properties.Append(buf)
	}
	return buf, err
}

func parseConnack(version Version, body []byte) (*Connack, error) {
	if len(body) < 2 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "connack")
	}
	if body[0]&0xFE != 0 {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "reserved connack ack-flags bits set")
	}
	p := &Connack{
		Version:        version,
		SessionPresent: body[0]&0x01 != 0,
		ReasonCode:     wire.ReasonCode(body[1]),
	}
	offset := 2
	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "connack properties")
		}
		p.Properties = props
		offset += n
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
