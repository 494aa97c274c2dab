// Package mqtterr is the engine's error taxonomy (spec §6.3, §7). Every
// sentinel here is wrapped with github.com/cockroachdb/errors at the point
// it's raised so callers get a stack trace and free-form detail alongside
// a Code they can switch on with errors.Is.
package mqtterr

import (
	"github.com/cockroachdb/errors"

	"github.com/packetloop/mqttengine/wire"
)

// Code classifies an engine error per spec §6.3.
type Code int

const (
	_ Code = iota

	// Wire errors (C1-C4): arise while decoding bytes.
	MalformedPacket
	UnsupportedProtocolVersion

	// Protocol errors: arise in the state machine while inspecting a
	// parsed packet; fatal to the connection.
	ProtocolError
	ClientIdentifierNotValid
	BadUserNameOrPassword
	TopicNameInvalid
	TopicFilterInvalid
	TopicAliasInvalid
	ReceiveMaximumExceeded
	PacketTooLarge
	PayloadFormatInvalid
	QosNotSupported
	RetainNotSupported
	KeepAliveTimeout

	// Usage errors: caller-initiated misuse, reported but not
	// necessarily fatal to the connection.
	PacketIdentifierInvalid
	PacketIdentifierFullyUsed
	PacketIdentifierConflict
	PacketNotAllowedToSend
	PacketNotAllowedToStore
	InsufficientBytes
	InvalidPacketForRole
	VersionMismatch
)

var codeNames = map[Code]string{
	MalformedPacket:            "malformed packet",
	UnsupportedProtocolVersion: "unsupported protocol version",
	ProtocolError:              "protocol error",
	ClientIdentifierNotValid:   "client identifier not valid",
	BadUserNameOrPassword:      "bad username or password",
	TopicNameInvalid:           "topic name invalid",
	TopicFilterInvalid:         "topic filter invalid",
	TopicAliasInvalid:          "topic alias invalid",
	ReceiveMaximumExceeded:     "receive maximum exceeded",
	PacketTooLarge:             "packet too large",
	PayloadFormatInvalid:       "payload format invalid",
	QosNotSupported:            "qos not supported",
	RetainNotSupported:         "retain not supported",
	KeepAliveTimeout:           "keep alive timeout",
	PacketIdentifierInvalid:    "packet identifier invalid",
	PacketIdentifierFullyUsed:  "packet identifier space fully used",
	PacketIdentifierConflict:   "packet identifier conflict",
	PacketNotAllowedToSend:     "packet not allowed to send",
	PacketNotAllowedToStore:    "packet not allowed to store",
	InsufficientBytes:          "insufficient bytes",
	InvalidPacketForRole:       "invalid packet for role",
	VersionMismatch:            "protocol version mismatch",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "unknown error"
}

// Error is the concrete error type every public entry point returns or
// embeds in an event. It is never a bare sentinel: Code is always set.
type Error struct {
	Code  Code
	cause error
}

func (e *Error) Error() string {
	return e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code, so
// errors.Is(err, mqtterr.New(mqtterr.ProtocolError, "")) works regardless
// of message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New creates an *Error of the given code with a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, cause: errors.Newf(format, args...)}
}

// Wrap annotates err with code and a message, preserving err in the chain.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, cause: errors.Wrapf(err, format, args...)}
}

// InsufficientBytesErr is the wire-level sentinel for an incomplete frame.
// packet.Parse does not return it bare: it returns an *Error with Code
// InsufficientBytes wrapping it, which engine's Recv loop treats as "retain
// the bytes and wait for more data" rather than as a fatal error.
var InsufficientBytesErr = wire.ErrInsufficientBytes

// ReasonCode maps an engine error Code to the MQTT 5 reason code an
// auto-generated DISCONNECT (or ack) should carry (spec §7).
func ReasonCode(code Code) wire.ReasonCode {
	switch code {
	case MalformedPacket:
		return wire.ReasonMalformedPacket
	case UnsupportedProtocolVersion:
		return wire.ReasonUnsupportedProtocolVersion
	case ClientIdentifierNotValid:
		return wire.ReasonClientIdentifierNotValid
	case BadUserNameOrPassword:
		return wire.ReasonBadUsernameOrPassword
	case TopicNameInvalid:
		return wire.ReasonTopicNameInvalid
	case TopicFilterInvalid:
		return wire.ReasonTopicFilterInvalid
	case TopicAliasInvalid:
		return wire.ReasonTopicAliasInvalid
	case ReceiveMaximumExceeded:
		return wire.ReasonReceiveMaximumExceeded
	case PacketTooLarge:
		return wire.ReasonPacketTooLarge
	case PayloadFormatInvalid:
		return wire.ReasonPayloadFormatInvalid
	case QosNotSupported:
		return wire.ReasonQoSNotSupported
	case RetainNotSupported:
		return wire.ReasonRetainNotSupported
	case KeepAliveTimeout:
		return wire.ReasonKeepAliveTimeout
	case ProtocolError:
		return wire.ReasonProtocolError
	default:
		return wire.ReasonUnspecifiedError
	}
}
