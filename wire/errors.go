// Package wire implements the byte-level MQTT framing shared by both
// protocol versions: the variable-byte integer (C1), the framed string,
// binary and two-byte-int fields (C2), and the MQTT 5 property stream (C3).
//
// Every decoder here works from an in-memory byte slice and reports one of
// two distinct failure modes, mirroring how a sans-I/O engine must treat
// them: ErrInsufficientBytes means "come back with more data", everything
// else means "this stream is bad, stop".
package wire

import "errors"

var (
	// ErrInsufficientBytes means the buffer ends before a complete field
	// could be decoded. Non-fatal: the caller should retain the bytes and
	// retry once more arrive.
	ErrInsufficientBytes = errors.New("wire: insufficient bytes")

	// ErrMalformed covers structurally invalid encodings: an over-long
	// variable-byte integer, a variable-byte integer value above the
	// encodable maximum, a framed string or binary value longer than
	// 65535 bytes being written, and an unknown property identifier.
	ErrMalformed = errors.New("wire: malformed field")

	// ErrInvalidUTF8 means a framed string failed MQTT's UTF-8 content
	// rules (invalid encoding, embedded NUL, or a noncharacter code
	// point).
	ErrInvalidUTF8 = errors.New("wire: invalid utf-8 string")
)
