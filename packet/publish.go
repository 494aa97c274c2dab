package packet

import (
	"strings"

	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var publishProps = map[wire.PropertyID]bool{
	wire.PropPayloadFormatIndicator: true,
	wire.PropMessageExpiryInterval:  true,
	wire.PropContentType:            true,
	wire.PropResponseTopic:          true,
	wire.PropCorrelationData:        true,
	wire.PropSubscriptionIdentifier: true,
	wire.PropTopicAlias:             true,
	wire.PropUserProperty:           true,
}

// Publish is the PUBLISH control packet.
type Publish struct {
	Version    Version
	DUP        bool
	QoS        QoS
	Retain     bool
	TopicName  wire.Bytes
	PacketID   uint16 // meaningful only when QoS > 0
	Properties wire.Properties
	Payload    wire.Bytes
}

func (p *Publish) isPacket()    {}
func (p *Publish) Type() Type   { return PUBLISH }
func (p *Publish) Ver() Version { return p.Version }

func (p *Publish) validate() error {
	if !p.QoS.IsValid() {
		return mqtterr.New(mqtterr.MalformedPacket, "invalid QoS %d", p.QoS)
	}
	if p.QoS == QoS0 && p.DUP {
		return mqtterr.New(mqtterr.MalformedPacket, "DUP must be 0 for QoS 0")
	}
	if p.QoS > QoS0 && p.PacketID == 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "non-zero packet identifier required for QoS > 0")
	}
	if p.QoS == QoS0 && p.PacketID != 0 {
		return mqtterr.New(mqtterr.MalformedPacket, "packet identifier must be absent for QoS 0")
	}
	if strings.ContainsAny(p.TopicName.String(), "+#") {
		return mqtterr.New(mqtterr.TopicNameInvalid, "PUBLISH topic name must not contain wildcards")
	}
	if p.TopicName.Len() > 0 {
		if err := wire.ValidateUTF8String(p.TopicName.String()); err != nil {
			return mqtterr.Wrap(mqtterr.TopicNameInvalid, err, "topic name")
		}
	}
	if p.Version == V5 {
		return validateProperties(publishProps, p.Properties)
	}
	return nil
}

func BuildPublish(p Publish) (*Publish, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Publish) flags() byte {
	var f byte
	if p.DUP {
		f |= 0x08
	}
	f |= byte(p.QoS) << 1
	if p.Retain {
		f |= 0x01
	}
	return f
}

func (p *Publish) varHeaderLen() int {
	n := 2 + p.TopicName.Len()
	if p.QoS > QoS0 {
		n += 2
	}
	if p.Version == V5 {
		n += p.Properties.EncodedLen()
	}
	return n
}

func (p *Publish) Size() int {
	rl := p.varHeaderLen() + p.Payload.Len()
	return fixedHeaderSize(rl) + rl
}

func (p *Publish) Append(buf []byte) ([]byte, error) {
	rl := p.varHeaderLen() + p.Payload.Len()
	var err error
	buf, err = appendFixedHeader(buf, PUBLISH, p.flags(), rl)
	if err != nil {
		return buf, err
	}
	buf, err = wire.AppendString(buf, p.TopicName)
	if err != nil {
		return buf, err
	}
	if p.QoS > QoS0 {
		buf = wire.AppendUint16(buf, p.PacketID)
	}
	if p.Version == V5 {
		buf, err = p.Properties.Append(buf)
		if err != nil {
			return buf, err
		}
	}
	return append(buf, p.Payload.Raw()...), nil
}

// Vectored splits the header (fixed header through properties) and the
// payload into two slices so a caller doing a vectored write never copies
// the application payload.
func (p *Publish) Vectored() ([][]byte, error) {
	rl := p.varHeaderLen() + p.Payload.Len()
	header := make([]byte, 0, rl-p.Payload.Len()+5)
	var err error
	header, err = appendFixedHeader(header, PUBLISH, p.flags(), rl)
	if err != nil {
		return nil, err
	}
	header, err = wire.AppendString(header, p.TopicName)
	if err != nil {
		return nil, err
	}
	if p.QoS > QoS0 {
		header = wire.AppendUint16(header, p.PacketID)
	}
	if p.Version == V5 {
		header, err = p.Properties.Append(header)
		if err != nil {
			return nil, err
		}
	}
	return [][]byte{header, p.Payload.Raw()}, nil
}

func parsePublish(version Version, fh decodedHeader, body []byte) (*Publish, error) {
	p := &Publish{
		Version: version,
		DUP:     fh.flags&0x08 != 0,
		QoS:     QoS((fh.flags & 0x06) >> 1),
		Retain:  fh.flags&0x01 != 0,
	}
	if !p.QoS.IsValid() {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "invalid QoS in PUBLISH flags")
	}

	topic, n, err := wire.DecodeString(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.TopicNameInvalid, err, "topic name")
	}
	p.TopicName = topic
	offset := n

	if p.QoS > QoS0 {
		id, n, err := wire.DecodeUint16(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "packet id")
		}
		p.PacketID = id
		offset += n
	}

	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "publish properties")
		}
		p.Properties = props
		offset += n
	}

	p.Payload = wire.BytesFrom(body[offset:])

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
