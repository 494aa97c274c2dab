package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var subackProps = map[wire.PropertyID]bool{
	wire.PropReasonString: true,
	wire.PropUserProperty: true,
}

// Suback is the SUBACK control packet: a reason code (v5) or return code
// (v3.1.1) per filter in the SUBSCRIBE it acknowledges.
type Suback struct {
	Version     Version
	PacketID    uint16
	Properties  wire.Properties // v5 only
	ReasonCodes []wire.ReasonCode
}

func (p *Suback) isPacket()    {}
func (p *Suback) Type() Type   { return SUBACK }
func (p *Suback) Ver() Version { return p.Version }

func (p *Suback) validate() error {
	if p.PacketID == 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "SUBACK packet identifier must be non-zero")
	}
	if len(p.ReasonCodes) == 0 {
		return mqtterr.New(mqtterr.ProtocolError, "SUBACK must contain at least one reason code")
	}
	if p.Version == V5 {
		return validateProperties(subackProps, p.Properties)
	}
	for _, rc := range p.ReasonCodes {
		if rc != wire.ReasonGrantedQoS0 && rc != wire.ReasonGrantedQoS1 && rc != wire.ReasonGrantedQoS2 && rc != wire.ReasonUnspecifiedError {
			return mqtterr.New(mqtterr.MalformedPacket, "invalid 3.1.1 SUBACK return code 0x%02x", byte(rc))
		}
	}
	return nil
}

func BuildSuback(p Suback) (*Suback, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Suback) Size() int {
	rl := 2 + len(p.ReasonCodes)
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Suback) Append(buf []byte) ([]byte, error) {
	rl := 2 + len(p.ReasonCodes)
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	var err error
	buf, err = appendFixedHeader(buf, SUBACK, 0, rl)
	if err != nil {
		return buf, err
	}
	buf = wire.AppendUint16(buf, p.PacketID)
	if p.Version == V5 {
		buf, err = p.Properties.Append(buf)
		if err != nil {
			return buf, err
		}
	}
	for _, rc := range p.ReasonCodes {
		buf = append(buf, byte(rc))
	}
	return buf, nil
}

func parseSuback(version Version, body []byte) (*Suback, error) {
	if len(body) < 2 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "packet id")
	}
	id, n, err := wire.DecodeUint16(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "packet id")
	}
	p := &Suback{Version: version, PacketID: id}
	offset := n

	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "suback properties")
		}
		p.Properties = props
		offset += n
	}

	for offset < len(body) {
		p.ReasonCodes = append(p.ReasonCodes, wire.ReasonCode(body[offset]))
		offset++
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
