package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var ackProps = map[wire.PropertyID]bool{
	wire.PropReasonString: true,
	wire.PropUserProperty: true,
}

// Ack is the shared shape of PUBACK, PUBREC, PUBREL and PUBCOMP: a packet
// identifier plus, in MQTT 5, an optional reason code and property stream.
type Ack struct {
	Version    Version
	Typ        Type // PUBACK, PUBREC, PUBREL or PUBCOMP
	PacketID   uint16
	ReasonCode wire.ReasonCode
	Properties wire.Properties
}

func (p *Ack) isPacket()    {}
func (p *Ack) Type() Type   { return p.Typ }
func (p *Ack) Ver() Version { return p.Version }

func ackFlags(typ Type) byte {
	if typ == PUBREL {
		return 0x02
	}
	return 0x00
}

func (p *Ack) validate() error {
	if p.PacketID == 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "%s packet identifier must be non-zero", p.Typ)
	}
	if p.Version == V5 {
		return validateProperties(ackProps, p.Properties)
	}
	return nil
}

func BuildAck(p Ack) (*Ack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// hasReasonCode reports whether this ack needs to carry a reason code byte
// at all: MQTT 5 lets a sender omit both the reason code and the property
// stream when the code is Success and there are no properties.
func (p *Ack) hasReasonCode() bool {
	return p.Version == V5 && (p.ReasonCode != wire.ReasonSuccess || p.Properties.Len() > 0)
}

func (p *Ack) Size() int {
	rl := 2
	if p.hasReasonCode() {
		rl++
		if p.Version == V5 {
			rl += p.Properties.EncodedLen()
		}
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Ack) Append(buf []byte) ([]byte, error) {
	rl := 2
	withRC := p.hasReasonCode()
	if withRC {
		rl++
		rl += p.Properties.EncodedLen()
	}
	var err error
	buf, err = appendFixedHeader(buf, p.Typ, ackFlags(p.Typ), rl)
	if err != nil {
		return buf, err
	}
	buf = wire.AppendUint16(buf, p.PacketID)
	if withRC {
		buf = append(buf, byte(p.ReasonCode))
		buf, err = p.Properties.Append(buf)
	}
	return buf, err
}

func parseAck(version Version, fh decodedHeader, body []byte) (*Ack, error) {
	wantFlags := ackFlags(Type(0))
	if fh.typ == PUBREL {
		wantFlags = ackFlags(PUBREL)
	}
	if fh.flags != wantFlags {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "invalid reserved flags for %s", fh.typ)
	}

	if len(body) < 2 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "packet id")
	}
	id, n, err := wire.DecodeUint16(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "packet id")
	}
	p := &Ack{Version: version, Typ: fh.typ, PacketID: id, ReasonCode: wire.ReasonSuccess}
	offset := n

	if version == V5 && offset < len(body) {
		p.ReasonCode = wire.ReasonCode(body[offset])
		offset++
		if offset < len(body) {
			props, n, err := wire.DecodeProperties(body[offset:])
			if err != nil {
				return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "ack properties")
			}
			p.Properties = props
			offset += n
		}
		// A remaining length of exactly 3 (reason code, no property-length
		// byte) is valid shorthand for "reason code present, no properties".
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
