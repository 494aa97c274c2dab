package session

import "github.com/packetloop/mqttengine/mqtterr"

// TopicAliases is the bidirectional, bounded topic-alias table a connection
// keeps for one direction of traffic (send or receive) under MQTT 5 (spec
// C7). An alias is a small integer, 1..Max, the peer agreed to accept in
// place of repeating a topic name on every PUBLISH.
type TopicAliases struct {
	max        uint16
	byAlias    []string // index 0 unused; index == alias
	topicAlias map[string]uint16
}

// NewTopicAliases returns a table that accepts aliases in 1..max. max == 0
// means topic aliasing is disabled in this direction.
func NewTopicAliases(max uint16) *TopicAliases {
	return &TopicAliases{
		max:        max,
		byAlias:    make([]string, int(max)+1),
		topicAlias: make(map[string]uint16),
	}
}

// Max returns the highest alias this table will accept.
func (t *TopicAliases) Max() uint16 {
	return t.max
}

// Register binds alias to topic (the sender establishing or refreshing a
// mapping). It returns mqtterr.TopicAliasInvalid if alias is 0 or exceeds
// Max.
func (t *TopicAliases) Register(alias uint16, topic string) error {
	if alias == 0 || alias > t.max {
		return mqtterr.New(mqtterr.TopicAliasInvalid, "topic alias %d out of range 1..%d", alias, t.max)
	}
	if old := t.byAlias[alias]; old != "" {
		delete(t.topicAlias, old)
	}
	t.byAlias[alias] = topic
	t.topicAlias[topic] = alias
	return nil
}

// Resolve returns the topic bound to alias, for an incoming PUBLISH that
// carries an alias instead of a full topic name. It returns
// mqtterr.TopicAliasInvalid if no mapping has been registered for alias.
func (t *TopicAliases) Resolve(alias uint16) (string, error) {
	if alias == 0 || alias > t.max {
		return "", mqtterr.New(mqtterr.TopicAliasInvalid, "topic alias %d out of range 1..%d", alias, t.max)
	}
	topic := t.byAlias[alias]
	if topic == "" {
		return "", mqtterr.New(mqtterr.TopicAliasInvalid, "topic alias %d has no mapping", alias)
	}
	return topic, nil
}

// Lookup returns the alias already registered for topic, for an outbound
// PUBLISH deciding whether it can send the alias alone.
func (t *TopicAliases) Lookup(topic string) (uint16, bool) {
	alias, ok := t.topicAlias[topic]
	return alias, ok
}

// Reset clears every mapping, e.g. on a fresh CONNECT with clean start.
func (t *TopicAliases) Reset() {
	for i := range t.byAlias {
		t.byAlias[i] = ""
	}
	t.topicAlias = make(map[string]uint16)
}
