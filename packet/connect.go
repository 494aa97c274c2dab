package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var connectProps = map[wire.PropertyID]bool{
	wire.PropSessionExpiryInterval:      true,
	wire.PropAuthenticationMethod:       true,
	wire.PropAuthenticationData:         true,
	wire.PropRequestProblemInformation:  true,
	wire.PropRequestResponseInformation: true,
	wire.PropReceiveMaximum:             true,
	wire.PropTopicAliasMaximum:          true,
	wire.PropUserProperty:               true,
	wire.PropMaximumPacketSize:          true,
}

var willProps = map[wire.PropertyID]bool{
	wire.PropPayloadFormatIndicator: true,
	wire.PropMessageExpiryInterval:  true,
	wire.PropContentType:            true,
	wire.PropResponseTopic:          true,
	wire.PropCorrelationData:        true,
	wire.PropWillDelayInterval:      true,
	wire.PropUserProperty:           true,
}

// Connect is the CONNECT control packet, identical in shape across both
// protocol versions except for the field named CleanStart (clean session
// in 3.1.1) and the presence of Properties/WillProperties (5.0 only).
type Connect struct {
	Version      Version
	CleanStart   bool
	WillFlag     bool
	WillQoS      QoS
	WillRetain   bool
	UsernameFlag bool
	PasswordFlag bool
	KeepAlive    uint16

	Properties     wire.Properties // v5 only
	ClientID       wire.Bytes
	WillProperties wire.Properties // v5 only
	WillTopic      wire.Bytes
	WillPayload    wire.Bytes
	Username       wire.Bytes
	Password       wire.Bytes
}

func (p *Connect) isPacket()     {}
func (p *Connect) Type() Type    { return CONNECT }
func (p *Connect) Ver() Version  { return p.Version }

func (p *Connect) validate() error {
	if p.PasswordFlag && !p.UsernameFlag {
		return mqtterr.New(mqtterr.MalformedPacket, "password flag set without username flag")
	}
	if p.WillFlag {
		if !p.WillQoS.IsValid() {
			return mqtterr.New(mqtterr.MalformedPacket, "invalid will QoS %d", p.WillQoS)
		}
	} else if p.WillQoS != QoS0 || p.WillRetain {
		return mqtterr.New(mqtterr.MalformedPacket, "will QoS/retain set without will flag")
	}
	if err := wire.ValidateUTF8String(p.ClientID.String()); err != nil {
		return mqtterr.Wrap(mqtterr.ClientIdentifierNotValid, err, "client id")
	}
	if p.Version == V5 {
		if err := validateProperties(connectProps, p.Properties); err != nil {
			return err
		}
		if _, hasData := findProp(p.Properties, wire.PropAuthenticationData); hasData {
			if _, hasMethod := findProp(p.Properties, wire.PropAuthenticationMethod); !hasMethod {
				return mqtterr.New(mqtterr.ProtocolError, "AuthenticationData requires AuthenticationMethod")
			}
		}
		if p.WillFlag {
			if err := validateProperties(willProps, p.WillProperties); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildConnect validates p's cross-field constraints and returns it ready
// to serialize.
func BuildConnect(p Connect) (*Connect, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Connect) Size() int {
	varHeader := 2 + 4 + 1 + 1 + 2 // "MQTT" + version + flags + keepalive
	if p.Version == V5 {
		varHeader += p.Properties.EncodedLen()
	}
	payload := 2 + p.ClientID.Len()
	if p.WillFlag {
		if p.Version == V5 {
			payload += p.WillProperties.EncodedLen()
		}
		payload += 2 + p.WillTopic.Len()
		payload += 2 + p.WillPayload.Len()
	}
	if p.UsernameFlag {
		payload += 2 + p.Username.Len()
	}
	if p.PasswordFlag {
		payload += 2 + p.Password.Len()
	}
	return fixedHeaderSize(varHeader+payload) + varHeader + payload
}

func (p *Connect) Append(buf []byte) ([]byte, error) {
	varHeader := 2 + 4 + 1 + 1 + 2
	if p.Version == V5 {
		varHeader += p.Properties.EncodedLen()
	}
	payload := 2 + p.ClientID.Len()
	if p.WillFlag {
		if p.Version == V5 {
			payload += p.WillProperties.EncodedLen()
		}
		payload += 2 + p.WillTopic.Len()
		payload += 2 + p.WillPayload.Len()
	}
	if p.UsernameFlag {
		payload += 2 + p.Username.Len()
	}
	if p.PasswordFlag {
		payload += 2 + p.Password.Len()
	}

	var err error
	buf, err = appendFixedHeader(buf, CONNECT, 0, varHeader+payload)
	if err != nil {
		return buf, err
	}
	buf, err = wire.AppendString(buf, wire.BytesFromString("MQTT"))
	if err != nil {
		return buf, err
	}
	buf = append(buf, byte(p.Version))

	var flags byte
	if p.CleanStart {
		flags |= 0x02
	}
	if p.WillFlag {
		flags |= 0x04
		flags |= byte(p.WillQoS) << 3
		if p.WillRetain {
			flags |= 0x20
		}
	}
	if p.PasswordFlag {
		flags |= 0x40
	}
	if p.UsernameFlag {
		flags |= 0x80
	}
	buf = append(buf, flags)
	buf = wire.AppendUint16(buf, p.KeepAlive)

	if p.Version == V5 {
		buf, err = p.Properties.Append(buf)
		if err != nil {
			return buf, err
		}
	}

	buf, err = wire.AppendString(buf, p.ClientID)
	if err != nil {
		return buf, err
	}
	if p.WillFlag {
		if p.Version == V5 {
			buf, err = p.WillProperties.Append(buf)
			if err != nil {
				return buf, err
			}
		}
		buf, err = wire.AppendString(buf, p.WillTopic)
		if err != nil {
			return buf, err
		}
		buf, err = wire.AppendBinary(buf, p.WillPayload)
		if err != nil {
			return buf, err
		}
	}
	if p.UsernameFlag {
		buf, err = wire.AppendString(buf, p.Username)
		if err != nil {
			return buf, err
		}
	}
	if p.PasswordFlag {
		buf, err = wire.AppendBinary(buf, p.Password)
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func parseConnect(body []byte) (*Connect, error) {
	name, n, err := wire.DecodeString(body)
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "protocol name")
	}
	if name.String() != "MQTT" {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "invalid protocol name %q", name.String())
	}
	offset := n

	if len(body) < offset+1 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "protocol version")
	}
	version := Version(body[offset])
	offset++
	if version != V311 && version != V5 {
		return nil, mqtterr.New(mqtterr.UnsupportedProtocolVersion, "unsupported protocol version %d", version)
	}

	if len(body) < offset+1 {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, wire.ErrInsufficientBytes, "connect flags")
	}
	flags := body[offset]
	offset++
	if flags&0x01 != 0 {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "reserved connect flag bit set")
	}

	p := &Connect{Version: version}
	p.CleanStart = flags&0x02 != 0
	p.WillFlag = flags&0x04 != 0
	p.WillQoS = QoS((flags & 0x18) >> 3)
	p.WillRetain = flags&0x20 != 0
	p.PasswordFlag = flags&0x40 != 0
	p.UsernameFlag = flags&0x80 != 0

	keepAlive, n, err := wire.DecodeUint16(body[offset:])
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "keep alive")
	}
	p.KeepAlive = keepAlive
	offset += n

	if version == V5 {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "connect properties")
		}
		p.Properties = props
		offset += n
	}

	clientID, n, err := wire.DecodeString(body[offset:])
	if err != nil {
		return nil, mqtterr.Wrap(mqtterr.ClientIdentifierNotValid, err, "client id")
	}
	p.ClientID = clientID
	offset += n

	if p.WillFlag {
		if version == V5 {
			props, n, err := wire.DecodeProperties(body[offset:])
			if err != nil {
				return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "will properties")
			}
			p.WillProperties = props
			offset += n
		}
		topic, n, err := wire.DecodeString(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "will topic")
		}
		p.WillTopic = topic
		offset += n

		payload, n, err := wire.DecodeBinary(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "will payload")
		}
		p.WillPayload = payload
		offset += n
	}

	if p.UsernameFlag {
		username, n, err := wire.DecodeString(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "username")
		}
		p.Username = username
		offset += n
	}
	if p.PasswordFlag {
		password, n, err := wire.DecodeBinary(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "password")
		}
		p.Password = password
		offset += n
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
