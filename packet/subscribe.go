package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var subscribeProps = map[wire.PropertyID]bool{
	wire.PropSubscriptionIdentifier: true,
	wire.PropUserProperty:           true,
}

// SubscribeEntry is one topic filter plus its subscription options within
// a SUBSCRIBE packet. NoLocal, RetainAsPublished and RetainHandling are
// meaningful only in MQTT 5; they decode as zero in 3.1.1.
type SubscribeEntry struct {
	TopicFilter       wire.Bytes
	QoS               QoS
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte
}

func (e SubscribeEntry) encode() byte {
	b := byte(e.QoS)
	if e.NoLocal {
		b |= 0x04
	}
	if e.RetainAsPublished {
		b |= 0x08
	}
	b |= (e.RetainHandling & 0x03) << 4
	return b
}

// Subscribe is the SUBSCRIBE control packet.
type Subscribe struct {
	Version    Version
	PacketID   uint16
	Properties wire.Properties
	Entries    []SubscribeEntry
}

func (p *Subscribe) isPacket()    {}
func (p *Subscribe) Type() Type   { return SUBSCRIBE }
func (p *Subscribe) Ver() Version { return p.Version }

func (p *Subscribe) validate() error {
	if p.PacketID == 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "SUBSCRIBE packet identifier must be non-zero")
	}
	if len(p.Entries) == 0 {
		return mqtterr.New(mqtterr.ProtocolError, "SUBSCRIBE must contain at least one topic filter")
	}
	for _, e := range p.Entries {
		if !e.QoS.IsValid() {
			return mqtterr.New(mqtterr.MalformedPacket, "invalid subscription QoS %d", e.QoS)
		}
		if p.Version == V311 && (e.NoLocal || e.RetainAsPublished || e.RetainHandling != 0) {
			return mqtterr.New(mqtterr.MalformedPacket, "reserved subscription option bits set")
		}
		if e.RetainHandling > 2 {
			return mqtterr.New(mqtterr.MalformedPacket, "invalid retain-handling %d", e.RetainHandling)
		}
		if err := validateTopicFilter(e.TopicFilter.String()); err != nil {
			return err
		}
	}
	if p.Version == V5 {
		return validateProperties(subscribeProps, p.Properties)
	}
	return nil
}

func BuildSubscribe(p Subscribe) (*Subscribe, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Subscribe) Size() int {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	for _, e := range p.Entries {
		rl += 2 + e.TopicFilter.Len() + 1
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Subscribe) Append(buf []byte) ([]byte, error) {
	rl := 2
	if p.Version == V5 {
		rl += p.Properties.EncodedLen()
	}
	for _, e := range p.Entries {
		rl += 2 + e.TopicFilter.Len() + 1
	}
	var err error
	buf, err = appendFixedHeader(buf, SUBSCRIBE, 0x02, rl)
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
	for _, e := range p.Entries {
		buf, err = wire.AppendString(buf, e.TopicFilter)
		if err != nil {
			return buf, err
		}
		buf = append(buf, e.encode())
	}
	return buf, nil
}

func parseSubscribe(version Version, fh decodedHeader, body []byte) (*Subscribe, error) {
	if fh.flags != 0x02 {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "invalid reserved flags for SUBSCRIBE")
	}
	if len(body) < 2 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "packet id")
	}
	id, n, err := wire.DecodeUint16(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "packet id")
	}
	p := &Subscribe{Version: version, PacketID: id}
	offset := n

	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "subscribe properties")
		}
		p.Properties = props
		offset += n
	}

	for offset < len(body) {
		filter, n, err := wire.DecodeString(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.TopicFilterInvalid, err, "topic filter")
		}
		offset += n
		if offset >= len(body) {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "subscription options")
		}
		opts := body[offset]
		offset++
		p.Entries = append(p.Entries, SubscribeEntry{
			TopicFilter:       filter,
			QoS:               QoS(opts & 0x03),
			NoLocal:           opts&0x04 != 0,
			RetainAsPublished: opts&0x08 != 0,
			RetainHandling:    (opts >> 4) & 0x03,
		})
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
