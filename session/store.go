// Package session holds the caller-visible state a connection accumulates
// across its lifetime and that must survive a clean-start=false reconnect:
// the in-flight packet store (C6), the MQTT 5 topic-alias maps (C7), the
// receive-maximum governor (C8) and the aggregate State value object.
//
// Nothing here performs I/O, starts a goroutine or reads the clock; resend
// scheduling and expiry are entirely the caller's responsibility, driven by
// the timer events the engine package emits.
package session

import (
	"github.com/packetloop/mqttengine/mqtterr"
	"github.com/packetloop/mqttengine/packet"
)

// Phase is where an in-flight QoS>0 PUBLISH sits in its acknowledgment
// handshake.
type Phase byte

const (
	// PubackExpected: outbound QoS 1 PUBLISH sent, waiting for PUBACK.
	PubackExpected Phase = iota
	// PubrecExpected: outbound QoS 2 PUBLISH sent, waiting for PUBREC.
	PubrecExpected
	// PubrelSent: PUBREC received, PUBREL sent, waiting for PUBCOMP.
	PubrelSent
)

// Entry is one packet held in the in-flight store: the PUBLISH itself (nil
// once past PubrelSent, since only the packet identifier matters from then
// on) plus its handshake phase.
type Entry struct {
	PacketID uint16
	Phase    Phase
	Publish  *packet.Publish
}

// Store is the insertion-ordered map of in-flight outbound QoS>0 PUBLISH
// packets, keyed by packet identifier. Insertion order is preserved so a
// session restore can resend every entry in the order it was originally
// sent, each marked DUP.
type Store struct {
	order []uint16
	byID  map[uint16]*Entry
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[uint16]*Entry)}
}

// Put records p as newly in flight, awaiting PUBACK (QoS 1) or PUBREC
// (QoS 2). It returns mqtterr.PacketNotAllowedToStore if the packet
// identifier is already present.
func (s *Store) Put(p *packet.Publish) error {
	if _, exists := s.byID[p.PacketID]; exists {
		return mqtterr.New(mqtterr.PacketNotAllowedToStore, "packet identifier %d already in flight", p.PacketID)
	}
	phase := PubackExpected
	if p.QoS == packet.QoS2 {
		phase = PubrecExpected
	}
	s.byID[p.PacketID] = &Entry{PacketID: p.PacketID, Phase: phase, Publish: p}
	s.order = append(s.order, p.PacketID)
	return nil
}

// Get returns the entry for id, if any.
func (s *Store) Get(id uint16) (*Entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// AdvanceToPubrelSent transitions a QoS 2 entry from PubrecExpected to
// PubrelSent on receipt of PUBREC, discarding the original PUBLISH body
// since only PUBREL needs to be resent from here on.
func (s *Store) AdvanceToPubrelSent(id uint16) error {
	e, ok := s.byID[id]
	if !ok {
		return mqtterr.New(mqtterr.PacketIdentifierInvalid, "no in-flight packet %d", id)
	}
	if e.Phase != PubrecExpected {
		return mqtterr.New(mqtterr.ProtocolError, "unexpected PUBREC for packet %d in phase %d", id, e.Phase)
	}
	e.Phase = PubrelSent
	e.Publish = nil
	return nil
}

// Remove completes the handshake for id (PUBACK for QoS 1, PUBCOMP for
// QoS 2) and frees its slot. It is a no-op if id is not present.
func (s *Store) Remove(id uint16) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of packets currently in flight.
func (s *Store) Len() int {
	return len(s.byID)
}

// Entries returns every in-flight entry in original send order, the order
// a session restore should resend them in.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
