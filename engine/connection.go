package engine

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/packet"
	"github.com/packetloop/mqttengine/session"
	"github.com/packetloop/mqttengine/wire"
)

// Connection is the sans-I/O MQTT connection state machine (C9). It never
// touches a socket, a clock or a goroutine: every method is synchronous,
// mutates only its own state, and returns the ordered list of actions
// (Event) the caller must carry out before making another call.
type Connection struct {
	version packet.Version
	role    Role
	state   connState

	sess *session.State

	recvBuf []byte

	pingreqTimeoutMs  uint32
	pingrespTimeoutMs uint32
	autoPuback        bool
	autoPubrec        bool
	autoPubrel        bool
	autoPubcomp       bool
	autoPingresp      bool
	offlinePublish    bool
	maxPacketSize     uint32

	sessionPresent bool // last negotiated value, for restore logic
}

// New returns a fresh Disconnected connection for version and role, with
// every auto-acknowledgment flag on by default (PUBACK/PUBREC/PUBREL/PUBCOMP
// and, for a server, PINGRESP). Offline publish queuing defaults off and
// must be opted into with SetOfflinePublish.
func New(version packet.Version, role Role) *Connection {
	c := &Connection{
		version:           version,
		role:              role,
		state:             stateDisconnected,
		sess:              session.New("", true, 0, 0),
		pingreqTimeoutMs:  30000,
		pingrespTimeoutMs: 10000,
		autoPuback:        true,
		autoPubrec:        true,
		autoPubrel:        true,
		autoPubcomp:       true,
		autoPingresp:      true,
	}
	return c
}

// SetAutoPuback controls whether receiving a QoS 1 PUBLISH automatically
// queues a PUBACK.
func (c *Connection) SetAutoPuback(on bool) { c.autoPuback = on }

// SetPingreqSendTimeout sets the keep-alive interval, in milliseconds, this
// side waits before sending an unsolicited PINGREQ.
func (c *Connection) SetPingreqSendTimeout(ms uint32) { c.pingreqTimeoutMs = ms }

// SetPingrespRecvTimeout sets how long, in milliseconds, this side waits
// for PINGRESP after sending PINGREQ before treating the peer as dead.
func (c *Connection) SetPingrespRecvTimeout(ms uint32) { c.pingrespTimeoutMs = ms }

// SetAutoPubrec controls whether receiving a QoS 2 PUBLISH automatically
// queues a PUBREC.
func (c *Connection) SetAutoPubrec(on bool) { c.autoPubrec = on }

// SetAutoPubrel controls whether receiving PUBREC automatically queues a
// PUBREL.
func (c *Connection) SetAutoPubrel(on bool) { c.autoPubrel = on }

// SetAutoPubcomp controls whether receiving PUBREL automatically queues a
// PUBCOMP.
func (c *Connection) SetAutoPubcomp(on bool) { c.autoPubcomp = on }

// SetAutoPingresp controls whether receiving PINGREQ automatically queues
// a PINGRESP (server side only; meaningless for a client).
func (c *Connection) SetAutoPingresp(on bool) { c.autoPingresp = on }

// SetOfflinePublish controls whether a client may queue QoS>0 PUBLISH
// while Disconnected, to be sent once the connection reaches Connected.
func (c *Connection) SetOfflinePublish(on bool) { c.offlinePublish = on }

// SetMaxPacketSize bounds the size of a single inbound packet this
// connection accepts; 0 means unbounded.
func (c *Connection) SetMaxPacketSize(n uint32) { c.maxPacketSize = n }

// AcquirePacketID reserves and returns the next free outbound packet
// identifier.
func (c *Connection) AcquirePacketID() (uint16, error) {
	return c.sess.IDs.Acquire()
}

// RegisterPacketID reserves a specific identifier, e.g. one restored from
// persisted session state.
func (c *Connection) RegisterPacketID(id uint16) error {
	return c.sess.IDs.Register(id)
}

// ReleasePacketID frees id and emits NotifyPacketIdReleased. Releasing an
// id not currently held is a no-op producing no events (spec §8).
func (c *Connection) ReleasePacketID(id uint16) []Event {
	if !c.sess.IDs.InUse(id) {
		return nil
	}
	c.sess.IDs.Release(id)
	return []Event{notifyIDReleased(id)}
}

// IsPublishProcessing reports whether id is an outbound QoS>0 PUBLISH
// still awaiting its final acknowledgment.
func (c *Connection) IsPublishProcessing(id uint16) bool {
	_, ok := c.sess.Outbound.Get(id)
	return ok
}

// GetQos2PublishHandled returns the packet identifiers of inbound QoS 2
// PUBLISH packets received but not yet released by PUBREL.
func (c *Connection) GetQos2PublishHandled() []uint16 {
	return c.sess.Inbound.IDs()
}

// GetStoredPackets returns every outbound QoS>0 PUBLISH still in flight, in
// original send order.
func (c *Connection) GetStoredPackets() []packet.Packet {
	entries := c.sess.Outbound.Entries()
	out := make([]packet.Packet, 0, len(entries))
	for _, e := range entries {
		if e.Publish != nil {
			out = append(out, e.Publish)
		}
	}
	return out
}

func (c *Connection) closeSequence(evs []Event) []Event {
	evs = append(evs, timerCancel(PingreqSend), timerCancel(PingrespRecv), requestClose())
	c.state = stateDisconnected
	return evs
}

// Send submits an outbound packet, validating it against the role/state
// allow-list and applying the engine's side effects (packet-ID storage,
// keep-alive timer reset, state transition on CONNECT/CONNACK/DISCONNECT).
func (c *Connection) Send(p packet.Packet) []Event {
	if pub, ok := p.(*packet.Publish); ok && c.role == RoleClient && c.state == stateDisconnected {
		if !c.offlinePublish || pub.QoS == packet.QoS0 {
			return []Event{notifyError(mqtterr.New(mqtterr.PacketNotAllowedToSend,
				"%s not allowed to send in state %d", p.Type(), c.state))}
		}
		if err := c.sess.Outbound.Put(pub); err != nil {
			return []Event{notifyError(err.(*mqtterr.Error))}
		}
		return nil
	}

	if !allowed(c.role, c.state, dirSend, p.Type()) {
		return []Event{notifyError(mqtterr.New(mqtterr.PacketNotAllowedToSend,
			"%s not allowed to send in state %d", p.Type(), c.state))}
	}

	var evs []Event

	switch pp := p.(type) {
	case *packet.Connect:
		c.state = stateConnecting
		if pp.CleanStart {
			c.sess = session.New(pp.ClientID.String(), pp.CleanStart, 0, 0)
		} else {
			c.sess.ClientID = pp.ClientID.String()
			c.sess.CleanStart = pp.CleanStart
		}
	case *packet.Connack:
		if pp.ReasonCode == wire.ReasonSuccess {
			c.state = stateConnected
		} else {
			evs = append(evs, sendPacket(p))
			return c.closeSequence(evs)
		}
	case *packet.Publish:
		if pp.QoS > packet.QoS0 {
			if err := c.sess.Outbound.Put(pp); err != nil {
				return []Event{notifyError(err.(*mqtterr.Error))}
			}
		}
	case *packet.Disconnect:
		evs = append(evs, sendPacket(p))
		return c.closeSequence(evs)
	}

	evs = append(evs, sendPacket(p))
	if c.state == stateConnected && c.pingreqTimeoutMs > 0 {
		evs = append(evs, timerReset(PingreqSend, c.pingreqTimeoutMs))
	}
	return evs
}

// CheckedSend is the type-restricted counterpart of Send: the Go type
// system already prevents callers from reaching it with anything but the
// control-packet subtypes meaningful to send, so it is Send under another
// name, kept for API symmetry with the language-neutral surface.
func (c *Connection) CheckedSend(p packet.Packet) []Event {
	return c.Send(p)
}

// NotifyClosed reports that the transport has closed, from either side or
// by network failure.
func (c *Connection) NotifyClosed() []Event {
	if c.state == stateDisconnected {
		return nil
	}
	return c.closeSequence(nil)
}

// NotifyTimerFired reports that a timer previously requested via
// RequestTimerReset has elapsed.
func (c *Connection) NotifyTimerFired(kind TimerKind) []Event {
	switch kind {
	case PingreqSend:
		if c.state != stateConnected {
			return nil
		}
		return []Event{sendPacket(packet.BuildPingreq(c.version)), timerReset(PingrespRecv, c.pingrespTimeoutMs)}
	case PingrespRecv:
		err := mqtterr.New(mqtterr.KeepAliveTimeout, "no PINGRESP within %dms", c.pingrespTimeoutMs)
		return c.fatalProtocolError(err)
	}
	return nil
}

// fatalProtocolError is the fixed three-part sequence a fatal error always
// produces: a v5 DISCONNECT carrying the reason code (always sent once the
// connection reached Connected; 3.1.1 has no such frame), then
// RequestClose and the timer cancels, then NotifyError.
func (c *Connection) fatalProtocolError(err *mqtterr.Error) []Event {
	var evs []Event
	if c.version == packet.V5 && c.state == stateConnected {
		d, buildErr := packet.BuildDisconnect(packet.Disconnect{
			Version:    packet.V5,
			ReasonCode: mqtterr.ReasonCode(err.Code),
		})
		if buildErr == nil {
			evs = append(evs, sendPacket(d))
		}
	}
	evs = c.closeSequence(evs)
	evs = append(evs, notifyError(err))
	return evs
}
