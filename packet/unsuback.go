package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var unsubackProps = map[wire.PropertyID]bool{
	wire.PropReasonString: true,
	wire.PropUserProperty: true,
}

// Unsuback is the UNSUBACK control packet. MQTT 3.1.1 carries no per-filter
// codes at all, just the packet identifier; ReasonCodes is only populated
// (and required) in MQTT 5.
type Unsuback struct {
	Version     Version
	PacketID    uint16
	Properties  wire.Properties // v5 only
	ReasonCodes []wire.ReasonCode // v5 only
}

func (p *Unsuback) isPacket()    {}
func (p *Unsuback) Type() Type   { return UNSUBACK }
func (p *Unsuback) Ver() Version { return p.Version }

func (p *Unsuback) validate() error {
	if p.PacketID == 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "UNSUBACK packet identifier must be non-zero")
	}
	if p.Version == V5 {
		if len(p.ReasonCodes) == 0 {
			return mqtterr.New(mqtterr.ProtocolError, "UNSUBACK must contain at least one reason code")
		}
		return validateProperties(unsubackProps, p.Properties)
	}
	if len(p.ReasonCodes) != 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "3.1.1 UNSUBACK must not carry reason codes")
	}
	return nil
}

func BuildUnsuback(p Unsuback) (*Unsuback, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Unsuback) Size() int {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen() + len(p.ReasonCodes)
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Unsuback) Append(buf []byte) ([]byte, error) {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen() + len(p.ReasonCodes)
	}
	var err error
	buf, err = appendFixedHeader(buf, UNSUBACK, 0, rl)
	if err != nil {
		return buf, err
	}
	buf = wire.AppendUint16(buf, p.PacketID)
	if p.Version == V5 {
		buf, err = p.Properties.Append(buf)
		if err != nil {
			return buf, err
		}
		for _, rc := range p.ReasonCodes {
			buf = append(buf, byte(rc))
		}
	}
	return buf, nil
}

func parseUnsuback(version Version, body []byte) (*Unsuback, error) {
	if len(body) < 2 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "packet id")
	}
	id, n, err := wire.DecodeUint16(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "packet id")
	}
	p := &Unsuback{Version: version, PacketID: id}
	offset := n

	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "unsuback properties")
		}
		p.Properties = props
		offset += n
		for offset < len(body) {
			p.ReasonCodes = append(p.ReasonCodes, wire.ReasonCode(body[offset]))
			offset++
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
