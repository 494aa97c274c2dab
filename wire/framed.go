package wire

// InlineCap is the compile-time small-buffer-optimization threshold (spec
// §9: "carried through this specification at 32 bytes but is not a
// wire-observable value and may be tuned"). Values up to this length are
// held inline in Bytes with no heap allocation; longer values spill to a
// heap-owned slice. The split is invisible to callers of Bytes' methods.
const InlineCap = 32

// Bytes is the opaque small-buffer-optimized holder used for every framed
// string and binary field in a packet (C2). Short client IDs, topic names
// and correlation data never allocate; long payloads fall back to a heap
// slice. Bytes is a value type and is safe to copy.
type Bytes struct {
	inline [InlineCap]byte
	length int
	heap   []byte
}

// BytesFromString wraps s, applying the small-buffer optimization.
func BytesFromString(s string) Bytes {
	return BytesFrom([]byte(s))
}

// BytesFrom wraps b, copying it so the returned Bytes owns its storage.
func BytesFrom(b []byte) Bytes {
	var v Bytes
	v.length = len(b)
	if len(b) <= InlineCap {
		copy(v.inline[:], b)
		return v
	}
	v.heap = append([]byte(nil), b...)
	return v
}

// Len returns the number of bytes held.
func (v Bytes) Len() int { return v.length }

// Raw returns the held bytes. Callers must not mutate the returned slice
// when it aliases the inline array of a copy still in use elsewhere;
// Bytes is intended to be read-only once constructed.
func (v Bytes) Raw() []byte {
	if v.heap != nil {
		return v.heap
	}
	return v.inline[:v.length]
}

// String returns the held bytes as a string.
func (v Bytes) String() string {
	return string(v.Raw())
}

// AppendString appends the 2-byte length prefix and the UTF-8 content of v
// to buf. v must already have passed ValidateUTF8String at build time.
func AppendString(buf []byte, v Bytes) ([]byte, error) {
	if v.Len() > 65535 {
		return buf, ErrMalformed
	}
	buf = append(buf, byte(v.Len()>>8), byte(v.Len()))
	return append(buf, v.Raw()...), nil
}

// AppendBinary appends the 2-byte length prefix and raw content of v to buf.
func AppendBinary(buf []byte, v Bytes) ([]byte, error) {
	return AppendString(buf, v)
}

// DecodeString decodes a framed, UTF-8-validated string from the front of
// data.
func DecodeString(data []byte) (Bytes, int, error) {
	v, n, err := DecodeBinary(data)
	if err != nil {
		return Bytes{}, 0, err
	}
	if err := ValidateUTF8String(v.String()); err != nil {
		return Bytes{}, 0, err
	}
	return v, n, nil
}

// DecodeBinary decodes a framed length-prefixed blob from the front of
// data, without content validation.
func DecodeBinary(data []byte) (Bytes, int, error) {
	if len(data) < 2 {
		return Bytes{}, 0, ErrInsufficientBytes
	}
	length := int(data[0])<<8 | int(data[1])
	if len(data) < 2+length {
		return Bytes{}, 0, ErrInsufficientBytes
	}
	return BytesFrom(data[2 : 2+length]), 2 + length, nil
}

// AppendUint16 appends value as a big-endian two-byte integer.
func AppendUint16(buf []byte, value uint16) []byte {
	return append(buf, byte(value>>8), byte(value))
}

// DecodeUint16 decodes a big-endian two-byte integer from the front of data.
func DecodeUint16(data []byte) (uint16, int, error) {
	if len(data) < 2 {
		return 0, 0, ErrInsufficientBytes
	}
	return uint16(data[0])<<8 | uint16(data[1]), 2, nil
}

// AppendUint32 appends value as a big-endian four-byte integer.
func AppendUint32(buf []byte, value uint32) []byte {
	return append(buf, byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
}

// DecodeUint32 decodes a big-endian four-byte integer from the front of data.
func DecodeUint32(data []byte) (uint32, int, error) {
	if len(data) < 4 {
		return 0, 0, ErrInsufficientBytes
	}
	return uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), 4, nil
}
