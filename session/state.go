package session

import (
	"github.com/packetloop/mqttengine/mqttid"
	"github.com/packetloop/mqttengine/packet"
)

// Status is the lifecycle phase of a session as distinct from the
// connection's own Disconnected/Connecting/Connected state: a session can
// outlive its connection when the client set clean-start=false and the
// broker honors an expiry interval.
type Status byte

const (
	StatusNew Status = iota
	StatusActive
	StatusDisconnected
	StatusExpired
)

// State is the full piece of session state a connection needs to survive
// a reconnect: packet-identifier bookkeeping, in-flight and QoS 2 receive
// sets, topic-alias tables, the receive-maximum governor and the handful
// of negotiated settings that travel with the session rather than with any
// one connection attempt.
type State struct {
	ClientID   string
	Status     Status
	CleanStart bool

	// IDs is the local packet-identifier allocator for outbound QoS>0
	// PUBLISH, SUBSCRIBE and UNSUBSCRIBE packets.
	IDs *mqttid.Allocator

	// Outbound is every QoS>0 PUBLISH sent but not yet fully acknowledged.
	Outbound *Store

	// Inbound is the set of QoS 2 packet identifiers received but not yet
	// released by PUBREL, guarding against duplicate delivery on resend.
	Inbound *Qos2Receive

	// SendAliases maps topic names this connection has told the peer it
	// may substitute with a small integer. ReceiveAliases is the inverse,
	// for aliases the peer has told this connection it will use.
	SendAliases    *TopicAliases
	ReceiveAliases *TopicAliases

	// Outbound QoS>0 governed against the peer's advertised Receive
	// Maximum.
	PeerReceiveMax *ReceiveMax

	// AutoAckPublish records whether PUBLISH acks (PUBACK/PUBREC) are sent
	// automatically for this session. The engine package does not read it;
	// its auto-acknowledgment follows the Connection's SetAutoPub* setters.
	AutoAckPublish bool

	// KeepAlive is the negotiated keep-alive interval in seconds; 0 means
	// disabled.
	KeepAlive uint16

	// MaxPacketSize bounds the size of a single packet this connection
	// will accept from the peer; 0 means no limit.
	MaxPacketSize uint32

	// OfflineQueueing records whether the session retains QoS>0 messages
	// published to it while the connection is absent (meaningful only while
	// Status is StatusDisconnected). Nothing in this module reads it; the
	// engine's offline publishing follows Connection.SetOfflinePublish.
	OfflineQueueing bool
}

// New returns a fresh State for clientID, with default governors and empty
// packet stores. sendAliasMax and receiveAliasMax are the Topic Alias
// Maximum values for the outbound and inbound directions respectively (0
// disables aliasing in that direction).
func New(clientID string, cleanStart bool, sendAliasMax, receiveAliasMax uint16) *State {
	return &State{
		ClientID:       clientID,
		Status:         StatusNew,
		CleanStart:     cleanStart,
		IDs:            mqttid.New(),
		Outbound:       NewStore(),
		Inbound:        NewQos2Receive(),
		SendAliases:    NewTopicAliases(sendAliasMax),
		ReceiveAliases: NewTopicAliases(receiveAliasMax),
		PeerReceiveMax: NewReceiveMax(0),
	}
}

// NewFromConnect derives initial session state from an inbound CONNECT,
// the constructor a server side uses once a CONNECT has been accepted.
func NewFromConnect(p *packet.Connect) *State {
	return New(p.ClientID.String(), p.CleanStart, 0, 0)
}

// Reset replaces the packet-identifier allocator, in-flight store, QoS 2
// receive set and receive-maximum governor with fresh ones and clears both
// topic-alias tables, as for a brand-new clean-start session. ClientID,
// Status, CleanStart and the settings fields are kept.
func (s *State) Reset() {
	s.IDs = mqttid.New()
	s.Outbound = NewStore()
	s.Inbound = NewQos2Receive()
	s.SendAliases.Reset()
	s.ReceiveAliases.Reset()
	s.PeerReceiveMax = NewReceiveMax(0)
}
