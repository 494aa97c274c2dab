package session

import "github.com/packetloop/mqttengine/mqtterr"

// ReceiveMax governs how many QoS>0 PUBLISH packets this connection may
// have outstanding (sent but not yet fully acknowledged) toward the peer at
// once, per the peer's advertised Receive Maximum (spec C8). The default of
// 65535 matches "no limit advertised" under MQTT 5.
type ReceiveMax struct {
	limit      uint16
	outstanding uint16
}

// NewReceiveMax returns a governor with the given limit. A limit of 0 is
// treated as the protocol default of 65535.
func NewReceiveMax(limit uint16) *ReceiveMax {
	if limit == 0 {
		limit = 65535
	}
	return &ReceiveMax{limit: limit}
}

// SetLimit updates the limit, e.g. on receipt of the peer's CONNECT/CONNACK
// Receive Maximum property.
func (r *ReceiveMax) SetLimit(limit uint16) {
	if limit == 0 {
		limit = 65535
	}
	r.limit = limit
}

// Limit returns the current limit.
func (r *ReceiveMax) Limit() uint16 {
	return r.limit
}

// Outstanding returns the number of currently outstanding QoS>0 PUBLISH
// packets counted against the limit.
func (r *ReceiveMax) Outstanding() uint16 {
	return r.outstanding
}

// Reserve accounts for one more outstanding QoS>0 PUBLISH about to be sent.
// It returns mqtterr.ReceiveMaximumExceeded if the limit would be exceeded.
func (r *ReceiveMax) Reserve() error {
	if r.outstanding >= r.limit {
		return mqtterr.New(mqtterr.ReceiveMaximumExceeded, "receive maximum %d exceeded", r.limit)
	}
	r.outstanding++
	return nil
}

// Release accounts for one outstanding PUBLISH having completed its
// handshake (PUBACK for QoS 1, PUBCOMP for QoS 2).
func (r *ReceiveMax) Release() {
	if r.outstanding > 0 {
		r.outstanding--
	}
}
