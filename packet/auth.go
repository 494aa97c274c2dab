package packet

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/wire"
)

var authProps = map[wire.PropertyID]bool{
	wire.PropAuthenticationMethod: true,
	wire.PropAuthenticationData:   true,
	wire.PropReasonString:         true,
	wire.PropUserProperty:         true,
}

// Auth is the AUTH control packet, introduced in MQTT 5 for extended
// (e.g. challenge/response) authentication exchanges. It does not exist in
// 3.1.1.
type Auth struct {
	Version    Version
	ReasonCode wire.ReasonCode
	Properties wire.Properties
}

func (p *Auth) isPacket()    {}
func (p *Auth) Type() Type   { return AUTH }
func (p *Auth) Ver() Version { return p.Version }

func (p *Auth) validate() error {
	if p.Version != V5 {
		return mqtterr.New(mqtterr.ProtocolError, "AUTH is not defined in MQTT 3.1.1")
	}
	if err := validateProperties(authProps, p.Properties); err != nil {
		return err
	}
	_, hasMethod := findProp(p.Properties, wire.PropAuthenticationMethod)
	if p.ReasonCode != wire.ReasonSuccess && !hasMethod {
		return mqtterr.New(mqtterr.ProtocolError, "AUTH requires AuthenticationMethod when reason code is not Success")
	}
	if _, hasData := findProp(p.Properties, wire.PropAuthenticationData); hasData && !hasMethod {
		return mqtterr.New(mqtterr.ProtocolError, "AuthenticationData requires AuthenticationMethod")
	}
	return nil
}

func BuildAuth(p Auth) (*Auth, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Auth) hasBody() bool {
	return p.ReasonCode != wire.ReasonSuccess || p.Properties.Len() > 0
}

func (p *Auth) Size() int {
	rl := 0
	if p.hasBody() {
		rl = 1 + p.Properties.EncodedLen()
	}
	return fixedHeaderSize(rl) + rl
}

func (p *Auth) Append(buf []byte) ([]byte, error) {
	withBody := p.hasBody()
	rl := 0
	if withBody {
		rl = 1 + p.Properties.EncodedLen()
	}
	var err error
	buf, err = appendFixedHeader(buf, AUTH, 0, rl)
	if err != nil {
		return buf, err
	}
	if withBody {
		buf = append(buf, byte(p.ReasonCode))
		buf, err = p.Properties.Append(buf)
	}
	return buf, err
}

func parseAuth(version Version, body []byte) (*Auth, error) {
	if version != V5 {
		return nil, mqtterr.New(mqtterr.ProtocolError, "AUTH is not defined in MQTT 3.1.1")
	}
	p := &Auth{Version: version}
	if len(body) == 0 {
		return p, nil
	}
	p.ReasonCode = wire.ReasonCode(body[0])
	offset := 1
	if offset < len(body) {
		props, n, err := wire.DecodeProperties(body[offset:])
		if err != nil {
			return nil, mqtterr.Wrap(mqtterr.MalformedPacket, err, "auth properties")
		}
		p.Properties = props
		offset += n
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
