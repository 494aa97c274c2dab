package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var disconnectProps = map[wire.PropertyID]bool{
	wire.PropSessionExpiryInterval: true,
	wire.PropReasonString:          true,
	wire.PropUserProperty:          true,
	wire.PropServerReference:       true,
}

// Disconnect is the DISCONNECT control packet. It carries no fields at all
// in 3.1.1; in MQTT 5 the reason code and properties are both optional and
// may be omitted entirely when the reason is Success and there is nothing
// else to say.
type Disconnect struct {
	Version    Version
	ReasonCode wire.ReasonCode
	Properties wire.Properties // v5 only
}

func (p *Disconnect) isPacket()    {}
func (p *Disconnect) Type() Type   { return DISCONNECT }
func (p *Disconnect) Ver() Version { return p.Version }

func (p *Disconnect) validate() error {
	if p.Version == V311 {
		if p.ReasonCode != wire.ReasonSuccess || p.Properties.Len() != 0 {
			return mqtterr.New(mqtterr.MalformedPacket, "3.1.1 DISCONNECT must be empty")
		}
		return nil
	}
	return validateProperties(disconnectProps, p.Properties)
}

func BuildDisconnect(p Disconnect) (*Disconnect, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Disconnect) hasBody() bool {
	return p.Version == V5 && (p.ReasonCode != wire.ReasonSuccess || p.Properties.Len() > 0)
}

func (p *Disconnect) Size() int {
	rl := 0
	if p.hasBody() {
		rl = 1 + p.Properties.EncodedLen()
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Disconnect) Append(buf []byte) ([]byte, error) {
	withBody := p.hasBody()
	rl := 0
	if withBody {
		rl = 1 + p.Properties.EncodedLen()
	}
	var err error
	buf, err = appendFixedHeader(buf, DISCONNECT, 0, rl)
	if err != nil {
		return buf, err
	}
	if withBody {
		buf = append(buf, byte(p.ReasonCode))
		buf, err = p.Properties.Append(buf)
	}
	return buf, err
}

func parseDisconnect(version Version, body []byte) (*Disconnect, error) {
	p := &Disconnect{Version: version}
	if version == V311 {
		if len(body) != 0 {
			return nil, mqtterr.New(mqtterr.MalformedPacket, "3.1.1 DISCONNECT must have an empty variable header")
		}
		return p, nil
	}
	if len(body) == 0 {
		return p, nil
	}
	p.ReasonCode = wire.ReasonCode(body[0])
	offset := 1
	if offset < len(body) {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "disconnect properties")
		}
		p.Properties = props
		offset += n
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
