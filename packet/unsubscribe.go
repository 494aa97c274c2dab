package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var unsubscribeProps = map[wire.PropertyID]bool{
	wire.PropUserProperty: true,
}

// Unsubscribe is the UNSUBSCRIBE control packet.
type Unsubscribe struct {
	Version      Version
	PacketID     uint16
	Properties   wire.Properties // v5 only
	TopicFilters []wire.Bytes
}

func (p *Unsubscribe) isPacket()    {}
func (p *Unsubscribe) Type() Type   { return UNSUBSCRIBE }
func (p *Unsubscribe) Ver() Version { return p.Version }

func (p *Unsubscribe) validate() error {
	if p.PacketID == 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "UNSUBSCRIBE packet identifier must be non-zero")
	}
	if len(p.TopicFilters) == 0 {
		return mqtterr.New(mqtterr.ProtocolError, "UNSUBSCRIBE must contain at least one topic filter")
	}
	for _, f := range p.TopicFilters {
		if err := validateTopicFilter(f.String()); err != nil {
			return err
		}
	}
	if p.Version == V5 {
		return validateProperties(unsubscribeProps, p.Properties)
	}
	return nil
}

func BuildUnsubscribe(p Unsubscribe) (*Unsubscribe, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Unsubscribe) Size() int {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	for _, f := range p.TopicFilters {
		rl += 2 + f.Len()
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Unsubscribe) Append(buf []byte) ([]byte, error) {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	for _, f := range p.TopicFilters {
		rl += 2 + f.Len()
	}
	var err error
	buf, err = appendFixedHeader(buf, UNSUBSCRIBE, 0x02, rl)
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
	for _, f := range p.TopicFilters {
		buf, err = wire.AppendString(buf, f)
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func parseUnsubscribe(version Version, fh decodedHeader, body []byte) (*Unsubscribe, error) {
	if fh.flags != 0x02 {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "invalid reserved flags for UNSUBSCRIBE")
	}
	if len(body) < 2 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "packet id")
	}
	id, n, err := wire.DecodeUint16(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "packet id")
	}
	p := &Unsubscribe{Version: version, PacketID: id}
	offset := n

	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "unsubscribe properties")
		}
		p.Properties = props
		offset += n
	}

	for offset < len(body) {
		filter, n, err := wire.DecodeString(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.TopicFilterInvalid, err, "topic filter")
		}
		p.TopicFilters = append(p.TopicFilters, filter)
		offset += n
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
