package hook

import (
	"github.com/DataDog/zstd"
	"github.com/golang/snappy"
)

// CompressionAlgorithm selects the codec CompressionHook applies to PUBLISH
// payloads.
type CompressionAlgorithm byte

const (
	CompressionNone CompressionAlgorithm = iota
	CompressionZstd
	CompressionSnappy
)

// CompressionHook transparently compresses outbound PUBLISH payloads of at
// least MinSize bytes and decompresses inbound ones carrying its marker byte. The marker
// lets a broker mix compressed and uncompressed clients on the same topic
// tree without a side channel.
type CompressionHook struct {
	*Base
	Algorithm CompressionAlgorithm
	MinSize   int
}

// compressionMarker is prefixed to a payload CompressionHook has encoded, so
// OnPublished knows to undo it. The marker is not escaped: OnPublished treats
// any payload whose first byte is 0xC5 as compressed, and OnPublish leaves
// such a payload unchanged.
type compressionMarker = byte

const compressionMarkerByte compressionMarker = 0xC5

// NewCompressionHook creates a hook that compresses PUBLISH payloads of at
// least minSize bytes using algo.
func NewCompressionHook(algo CompressionAlgorithm, minSize int) *CompressionHook {
	return &CompressionHook{
		Base:      &Base{id: "compression"},
		Algorithm: algo,
		MinSize:   minSize,
	}
}

// ID returns the hook identifier
func (h *CompressionHook) ID() string {
	return h.id
}

// Provides indicates this hook acts on publish payloads
func (h *CompressionHook) Provides(event Event) bool {
	return event == OnPublish || event == OnPublished
}

// OnPublish compresses packet.Payload in place when it is at least MinSize
// bytes and not already marked as compressed.
func (h *CompressionHook) OnPublish(client *Client, pkt *PublishPacket) error {
	if h.Algorithm == CompressionNone || len(pkt.Payload) < h.MinSize {
		return nil
	}
	if len(pkt.Payload) > 0 && pkt.Payload[0] == compressionMarkerByte {
		return nil
	}

	compressed, err := h.compress(pkt.Payload)
	if err != nil {
		return err
	}
	if len(compressed) >= len(pkt.Payload) {
		return nil
	}

	out := make([]byte, 0, len(compressed)+1)
	out = append(out, compressionMarkerByte)
	out = append(out, compressed...)
	pkt.Payload = out
	return nil
}

// OnPublished reverses OnPublish, restoring the original payload for
// subscribers that did not negotiate this hook's codec.
func (h *CompressionHook) OnPublished(client *Client, pkt *PublishPacket) error {
	if len(pkt.Payload) == 0 || pkt.Payload[0] != compressionMarkerByte {
		return nil
	}

	decompressed, err := h.decompress(pkt.Payload[1:])
	if err != nil {
		return err
	}
	pkt.Payload = decompressed
	return nil
}

func (h *CompressionHook) compress(payload []byte) ([]byte, error) {
	switch h.Algorithm {
	case CompressionZstd:
		return zstd.Compress(nil, payload)
	case CompressionSnappy:
		return snappy.Encode(nil, payload), nil
	default:
		return nil, ErrUnsupportedCompression
	}
}

func (h *CompressionHook) decompress(payload []byte) ([]byte, error) {
	switch h.Algorithm {
	case CompressionZstd:
		return zstd.Decompress(nil, payload)
	case CompressionSnappy:
		return snappy.Decode(nil, payload)
	default:
		return nil, ErrUnsupportedCompression
	}
}
