package engine

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/packet"
	"github.com/packetloop/mqttengine/session"
	"github.com/packetloop/mqttengine/wire"
)

// Recv feeds inbound bytes to the connection. It may be called repeatedly
// with partial frames; bytes that do not yet form a complete packet are
// retained internally and combined with the next call's data.
func (c *Connection) Recv(data []byte) []Event {
	c.recvBuf = append(c.recvBuf, data...)

	var evs []Event
	for {
		p, n, err := packet.Parse(c.version, c.recvBuf)
		if err != nil {
			if mErr, ok := err.(*mqtterr.Error); ok && mErr.Code == mqtterr.InsufficientBytes {
				break
			}
			evs = append(evs, c.fatalProtocolError(toMqttErr(err))...)
			c.recvBuf = nil
			return evs
		}
		c.recvBuf = c.recvBuf[n:]
		if c.maxPacketSize > 0 && uint32(n) > c.maxPacketSize {
			evs = append(evs, c.fatalProtocolError(mqtterr.New(mqtterr.PacketTooLarge, "packet of %d bytes exceeds limit %d", n, c.maxPacketSize))...)
			return evs
		}
		evs = append(evs, c.handleReceived(p)...)
		if c.state == stateDisconnected {
			break
		}
	}
	return evs
}

func toMqttErr(err error) *mqtterr.Error {
	if mErr, ok := err.(*mqtterr.Error); ok {
		return mErr
	}
	return mqtterr.Wrap(mqtterr.MalformedPacket, err, "recv")
}

func (c *Connection) handleReceived(p packet.Packet) []Event {
	switch pp := p.(type) {
	case *packet.Connect:
		return c.handleConnectRecv(pp)
	case *packet.Connack:
		return c.handleConnackRecv(pp)
	}

	if !allowed(c.role, c.state, dirRecv, p.Type()) {
		return c.fatalProtocolError(mqtterr.New(mqtterr.ProtocolError, "%s not allowed to receive in state %d", p.Type(), c.state))
	}

	switch pp := p.(type) {
	case *packet.Publish:
		return c.handlePublishRecv(pp)
	case *packet.Ack:
		return c.handleAckRecv(pp)
	case *packet.Suback:
		return c.handleCorrelatedRecv(p, pp.PacketID)
	case *packet.Unsuback:
		return c.handleCorrelatedRecv(p, pp.PacketID)
	case *packet.Pingreq:
		evs := []Event{notifyReceived(p)}
		if c.autoPingresp {
			evs = append(evs, sendPacket(packet.BuildPingresp(c.version)))
		}
		return evs
	case *packet.Pingresp:
		return []Event{notifyReceived(p), timerCancel(PingrespRecv)}
	case *packet.Disconnect:
		evs := []Event{notifyReceived(p)}
		return c.closeSequence(evs)
	default:
		return []Event{notifyReceived(p)}
	}
}

func (c *Connection) handleConnectRecv(pp *packet.Connect) []Event {
	if c.role != RoleServer || c.state != stateDisconnected {
		return c.fatalProtocolError(mqtterr.New(mqtterr.InvalidPacketForRole, "unexpected CONNECT"))
	}
	c.state = stateConnecting
	c.sess = session.NewFromConnect(pp)
	return []Event{notifyReceived(pp)}
}

func (c *Connection) handleConnackRecv(pp *packet.Connack) []Event {
	if c.role != RoleClient || c.state != stateConnecting {
		return c.fatalProtocolError(mqtterr.New(mqtterr.InvalidPacketForRole, "unexpected CONNACK"))
	}
	if pp.ReasonCode != wire.ReasonSuccess {
		evs := []Event{notifyReceived(pp)}
		return c.closeSequence(evs)
	}
	c.state = stateConnected
	c.sessionPresent = pp.SessionPresent

	evs := []Event{notifyReceived(pp)}
	if pp.SessionPresent {
		for _, e := range c.sess.Outbound.Entries() {
			if e.Publish == nil {
				continue
			}
			resend := *e.Publish
			resend.DUP = true
			evs = append(evs, sendPacket(&resend))
		}
	} else {
		for _, e := range c.sess.Outbound.Entries() {
			c.sess.Outbound.Remove(e.PacketID)
			c.sess.IDs.Release(e.PacketID)
			evs = append(evs, notifyIDReleased(e.PacketID))
		}
	}
	return evs
}

func (c *Connection) handlePublishRecv(pp *packet.Publish) []Event {
	switch pp.QoS {
	case packet.QoS0:
		return []Event{notifyReceived(pp)}
	case packet.QoS1:
		evs := []Event{notifyReceived(pp)}
		if c.autoPuback {
			ack, err := packet.BuildAck(packet.Ack{Version: c.version, Typ: packet.PUBACK, PacketID: pp.PacketID})
			if err == nil {
				evs = append(evs, sendPacket(ack))
			}
		}
		return evs
	case packet.QoS2:
		c.sess.Inbound.Add(pp.PacketID)
		evs := []Event{notifyReceived(pp)}
		if c.autoPubrec {
			ack, err := packet.BuildAck(packet.Ack{Version: c.version, Typ: packet.PUBREC, PacketID: pp.PacketID})
			if err == nil {
				evs = append(evs, sendPacket(ack))
			}
		}
		return evs
	}
	return c.fatalProtocolError(mqtterr.New(mqtterr.MalformedPacket, "invalid PUBLISH QoS"))
}

func (c *Connection) handleAckRecv(pp *packet.Ack) []Event {
	switch pp.Typ {
	case packet.PUBACK:
		if _, ok := c.sess.Outbound.Get(pp.PacketID); !ok {
			return c.fatalProtocolError(mqtterr.New(mqtterr.ProtocolError, "PUBACK for unknown packet id %d", pp.PacketID))
		}
		c.sess.Outbound.Remove(pp.PacketID)
		c.sess.IDs.Release(pp.PacketID)
		c.sess.PeerReceiveMax.Release()
		return []Event{notifyIDReleased(pp.PacketID), notifyReceived(pp)}
	case packet.PUBREC:
		if err := c.sess.Outbound.AdvanceToPubrelSent(pp.PacketID); err != nil {
			return c.fatalProtocolError(mqtterr.New(mqtterr.ProtocolError, "PUBREC for unknown packet id %d", pp.PacketID))
		}
		evs := []Event{notifyReceived(pp)}
		if c.autoPubrel {
			rel, err := packet.BuildAck(packet.Ack{Version: c.version, Typ: packet.PUBREL, PacketID: pp.PacketID})
			if err == nil {
				evs = append(evs, sendPacket(rel))
			}
		}
		return evs
	case packet.PUBREL:
		c.sess.Inbound.Remove(pp.PacketID)
		evs := []Event{notifyReceived(pp)}
		if c.autoPubcomp {
			comp, err := packet.BuildAck(packet.Ack{Version: c.version, Typ: packet.PUBCOMP, PacketID: pp.PacketID})
			if err == nil {
				evs = append(evs, sendPacket(comp))
			}
		}
		return evs
	case packet.PUBCOMP:
		if _, ok := c.sess.Outbound.Get(pp.PacketID); !ok {
			return c.fatalProtocolError(mqtterr.New(mqtterr.ProtocolError, "PUBCOMP for unknown packet id %d", pp.PacketID))
		}
		c.sess.Outbound.Remove(pp.PacketID)
		c.sess.IDs.Release(pp.PacketID)
		c.sess.PeerReceiveMax.Release()
		return []Event{notifyIDReleased(pp.PacketID), notifyReceived(pp)}
	}
	return []Event{notifyReceived(pp)}
}

func (c *Connection) handleCorrelatedRecv(p packet.Packet, id uint16) []Event {
	if !c.sess.IDs.InUse(id) {
		return c.fatalProtocolError(mqtterr.New(mqtterr.ProtocolError, "%s for unknown packet id %d", p.Type(), id))
	}
	c.sess.IDs.Release(id)
	return []Event{notifyIDReleased(id), notifyReceived(p)}
}
