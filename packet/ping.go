package packet

import "github.com/packetloop/mqttengine/mqtterr"

// Pingreq is the PINGREQ control packet: no variable header, no payload,
// identical in both protocol versions.
type Pingreq struct {
	Version Version
}

func (p *Pingreq) isPacket()    {}
func (p *Pingreq) Type() Type   { return PINGREQ }
func (p *Pingreq) Ver() Version { return p.Version }
func (p *Pingreq) Size() int    { return fixedHeaderSize(0) }

func (p *Pingreq) Append(buf []byte) ([]byte, error) {
	return appendFixedHeader(buf, PINGREQ, 0, 0)
}

func BuildPingreq(version Version) *Pingreq {
	return &Pingreq{Version: version}
}

func parsePingreq(version Version, fh decodedHeader, body []byte) (*Pingreq, error) {
	if fh.flags != 0 || len(body) != 0 {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "PINGREQ must have an empty variable header")
	}
	return &Pingreq{Version: version}, nil
}

// Pingresp is the PINGRESP control packet: no variable header, no payload.
type Pingresp struct {
	Version Version
}

func (p *Pingresp) isPacket()    {}
func (p *Pingresp) Type() Type   { return PINGRESP }
func (p *Pingresp) Ver() Version { return p.Version }
func (p *Pingresp) Size() int    { return fixedHeaderSize(0) }

func (p *Pingresp) Append(buf []byte) ([]byte, error) {
	return appendFixedHeader(buf, PINGRESP, 0, 0)
}

func BuildPingresp(version Version) *Pingresp {
	return &Pingresp{Version: version}
}

func parsePingresp(version Version, fh decodedHeader, body []byte) (*Pingresp, error) {
	if fh.flags != 0 || len(body) != 0 {
		return nil, mqtterr.New(mqtterr.MalformedPacket, "PINGRESP must have an empty variable header")
	}
	return &Pingresp{Version: version}, nil
}
