package engine

import "github.com/packetloop/mqttengine/packet"

// Role is which end of the connection this instance plays.
type Role byte

const (
	RoleClient Role = iota
	RoleServer
)

// connState is the connection's own Disconnected/Connecting/Connected
// lifecycle state, distinct from session.Status which can outlive it.
type connState byte

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// direction of a packet relative to this instance.
type direction byte

const (
	dirSend direction = iota
	dirRecv
)

// allowed reports whether a packet of typ may travel in dir while this
// instance, playing role, is in state st. Send consults this table for
// every packet type, CONNECT and CONNACK included; on the receive side,
// handleReceived deals with CONNECT/CONNACK itself and does not consult
// this table for them.
func allowed(role Role, st connState, dir direction, typ packet.Type) bool {
	switch dir {
	case dirSend:
		switch role {
		case RoleClient:
			switch st {
			case stateDisconnected:
				return typ == packet.CONNECT
			case stateConnecting:
				return false
			case stateConnected:
				return typ != packet.CONNECT && typ != packet.CONNACK
			}
		case RoleServer:
			switch st {
			case stateDisconnected:
				return false
			case stateConnecting:
				return typ == packet.CONNACK || typ == packet.AUTH
			case stateConnected:
				return typ != packet.CONNACK
			}
		}
	case dirRecv:
		switch role {
		case RoleClient:
			switch st {
			case stateConnecting:
				return typ == packet.CONNACK || typ == packet.AUTH
			case stateConnected:
				return typ != packet.CONNECT && typ != packet.SUBSCRIBE &&
					typ != packet.UNSUBSCRIBE && typ != packet.PINGREQ
			default:
				return false
			}
		case RoleServer:
			switch st {
			case stateConnecting:
				return typ == packet.CONNECT || typ == packet.AUTH
			case stateConnected:
				return typ != packet.CONNECT && typ != packet.CONNACK && typ != packet.PINGRESP
			default:
				return false
			}
		}
	}
	return false
}
