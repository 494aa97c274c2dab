package metrics

import (
	"time"

	"github.com/packetloop/mqttengine/hook"
	"github.com/packetloop/mqttengine/packet"
)

// Hook adapts a Recorder into the hook.Hook interface so it can be
// registered with a hook.Manager alongside auth, rate-limit, and
// compression hooks.
type Hook struct {
	*hook.Base
	recorder *Recorder
}

// NewHook wraps recorder as a hook.Hook.
func NewHook(recorder *Recorder) *Hook {
	return &Hook{Base: hook.NewHookBase("metrics"), recorder: recorder}
}

// Provides reports which lifecycle events this hook observes.
func (h *Hook) Provides(event hook.Event) bool {
	switch event {
	case hook.OnConnect, hook.OnDisconnect, hook.OnPacketProcessed, hook.OnPacketSent:
		return true
	default:
		return false
	}
}

// OnConnect records a new active connection.
func (h *Hook) OnConnect(client *hook.Client, pkt *hook.ConnectPacket) error {
	h.recorder.ClientConnected()
	return nil
}

// OnDisconnect records a connection leaving.
func (h *Hook) OnDisconnect(client *hook.Client, err error, expire bool) error {
	h.recorder.ClientDisconnected()
	return nil
}

// OnPacketProcessed records an inbound packet by type.
func (h *Hook) OnPacketProcessed(client *hook.Client, packetType packet.Type, err error) error {
	h.recorder.PacketReceived(packetType.String(), 0)
	return nil
}

// OnPacketSent records an outbound packet's wire size.
func (h *Hook) OnPacketSent(client *hook.Client, pkt []byte, count int, err error) error {
	h.recorder.PacketSent("", count)
	return nil
}

// ObserveQosComplete is a convenience passthrough for callers that track QoS
// exchange start times outside the hook pipeline; nothing in engine calls
// it.
func (h *Hook) ObserveQosComplete(qos byte, started time.Time) {
	h.recorder.ObserveQosComplete(qos, time.Since(started))
}
