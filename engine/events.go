// Package engine implements the connection state machine (C9) and its
// event bus (C10): the sans-I/O core that turns CONNECT/CONNACK/PUBLISH/...
// traffic into a deterministic sequence of actions for the caller to carry
// out, without ever touching a socket, a clock or a goroutine itself.
package engine

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/packet"
)

// TimerKind identifies one of the two timers the engine asks the caller to
// manage on its behalf.
type TimerKind byte

const (
	// PingreqSend fires when it is time for this side to send a PINGREQ.
	PingreqSend TimerKind = iota
	// PingrespRecv fires when a sent PINGREQ has gone unanswered too long.
	PingrespRecv
)

func (k TimerKind) String() string {
	if k == PingreqSend {
		return "PingreqSend"
	}
	return "PingrespRecv"
}

// EventKind discriminates the Event union.
type EventKind byte

const (
	RequestSendPacket EventKind = iota
	RequestClose
	RequestTimerReset
	RequestTimerCancel
	NotifyPacketReceived
	NotifyPacketIdReleased
	NotifyError
)

// Event is one action for the caller to carry out or one notification for
// it to observe, in the order the engine produced it within a single call.
type Event struct {
	Kind EventKind

	// RequestSendPacket
	Packet           packet.Packet
	ReleaseOnSendErr bool
	ReleasePacketID  uint16

	// RequestTimerReset / RequestTimerCancel
	TimerKind TimerKind
	DurationMs uint32

	// NotifyPacketReceived
	Received packet.Packet

	// NotifyPacketIdReleased
	ReleasedID uint16

	// NotifyError
	Err *mqtterr.Error
}

func sendPacket(p packet.Packet) Event {
	return Event{Kind: RequestSendPacket, Packet: p}
}

func sendPacketReleasing(p packet.Packet, id uint16) Event {
	return Event{Kind: RequestSendPacket, Packet: p, ReleaseOnSendErr: true, ReleasePacketID: id}
}

func requestClose() Event {
	return Event{Kind: RequestClose}
}

func timerReset(kind TimerKind, ms uint32) Event {
	return Event{Kind: RequestTimerReset, TimerKind: kind, DurationMs: ms}
}

func timerCancel(kind TimerKind) Event {
	return Event{Kind: RequestTimerCancel, TimerKind: kind}
}

func notifyReceived(p packet.Packet) Event {
	return Event{Kind: NotifyPacketReceived, Received: p}
}

func notifyIDReleased(id uint16) Event {
	return Event{Kind: NotifyPacketIdReleased, ReleasedID: id}
}

func notifyError(err *mqtterr.Error) Event {
	return Event{Kind: NotifyError, Err: err}
}
