package packet

import (
	"testing"

	"github.com/packetloop/mqttengine/wire"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, version Version, p Packet) Packet {
	t.Helper()
	chunks, err := Serialize(p)
	require.NoError(t, err)
	var buf []byte
	for _, c := range chunks {
		buf = append(buf, c...)
	}
	require.Equal(t, p.Size(), len(buf))

	got, n, err := Parse(version, buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	return got
}

func TestConnectRoundTrip311(t *testing.T) {
	c, err := BuildConnect(Connect{
		Version:      V311,
		CleanStart:   true,
		UsernameFlag: true,
		PasswordFlag: true,
		KeepAlive:    30,
		ClientID:     wire.BytesFromString("client-a"),
		Username:     wire.BytesFromString("alice"),
		Password:     wire.BytesFromString("secret"),
	})
	require.NoError(t, err)

	got := roundTrip(t, V311, c)
	gc, ok := got.(*Connect)
	require.True(t, ok)
	require.Equal(t, "client-a", gc.ClientID.String())
	require.Equal(t, "alice", gc.Username.String())
	require.Equal(t, uint16(30), gc.KeepAlive)
	require.True(t, gc.CleanStart)
}

func TestConnectRoundTripV5WithWill(t *testing.T) {
	c, err := BuildConnect(Connect{
		Version:     V5,
		CleanStart:  false,
		WillFlag:    true,
		WillQoS:     QoS1,
		WillTopic:   wire.BytesFromString("lwt/topic"),
		WillPayload: wire.BytesFromString("gone"),
		KeepAlive:   60,
		ClientID:    wire.BytesFromString("client-b"),
	})
	require.NoError(t, err)

	got := roundTrip(t, V5, c)
	gc, ok := got.(*Connect)
	require.True(t, ok)
	require.True(t, gc.WillFlag)
	require.Equal(t, QoS1, gc.WillQoS)
	require.Equal(t, "lwt/topic", gc.WillTopic.String())
}

func TestConnackRoundTrip(t *testing.T) {
	c, err := BuildConnack(Connack{
		Version:        V5,
		SessionPresent: true,
		ReasonCode:     wire.ReasonSuccess,
	})
	require.NoError(t, err)

	got := roundTrip(t, V5, c)
	gc, ok := got.(*Connack)
	require.True(t, ok)
	require.True(t, gc.SessionPresent)
	require.Equal(t, wire.ReasonSuccess, gc.ReasonCode)
}

func TestConnackSessionPresentRequiresSuccessIn311(t *testing.T) {
	_, err := BuildConnack(Connack{
		Version:        V311,
		SessionPresent: true,
		ReasonCode:     wire.ReasonUnspecifiedError,
	})
	require.Error(t, err)
}

func TestPublishRoundTripQoS2(t *testing.T) {
	p, err := BuildPublish(Publish{
		Version:   V311,
		QoS:       QoS2,
		PacketID:  42,
		TopicName: wire.BytesFromString("a/b/c"),
		Payload:   wire.BytesFromString("hello world"),
	})
	require.NoError(t, err)

	got := roundTrip(t, V311, p)
	gp, ok := got.(*Publish)
	require.True(t, ok)
	require.Equal(t, uint16(42), gp.PacketID)
	require.Equal(t, "a/b/c", gp.TopicName.String())
	require.Equal(t, "hello world", gp.Payload.String())
}

func TestPublishQoS0RejectsPacketID(t *testing.T) {
	_, err := BuildPublish(Publish{
		Version:   V311,
		QoS:       QoS0,
		PacketID:  1,
		TopicName: wire.BytesFromString("a"),
	})
	require.Error(t, err)
}

func TestPublishInvalidQoSRejected(t *testing.T) {
	_, err := BuildPublish(Publish{
		Version:   V311,
		QoS:       QoS(3),
		PacketID:  1,
		TopicName: wire.BytesFromString("a"),
	})
	require.Error(t, err)
}

func TestPublishRejectsWildcardTopicName(t *testing.T) {
	_, err := BuildPublish(Publish{
		Version:   V311,
		QoS:       QoS0,
		TopicName: wire.BytesFromString("a/+/c"),
	})
	require.Error(t, err)
}

func TestPublishVectoredSplitsHeaderAndPayload(t *testing.T) {
	p, err := BuildPublish(Publish{
		Version:   V311,
		QoS:       QoS0,
		TopicName: wire.BytesFromString("a/b"),
		Payload:   wire.BytesFromString("payload-body"),
	})
	require.NoError(t, err)

	chunks, err := Serialize(p)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
}

func TestAckRoundTripPuback(t *testing.T) {
	a, err := BuildAck(Ack{Version: V5, Typ: PUBACK, PacketID: 7})
	require.NoError(t, err)

	got := roundTrip(t, V5, a)
	ga, ok := got.(*Ack)
	require.True(t, ok)
	require.Equal(t, PUBACK, ga.Typ)
	require.Equal(t, uint16(7), ga.PacketID)
}

func TestAckZeroPacketIDRejected(t *testing.T) {
	for _, typ := range []Type{PUBACK, PUBREC, PUBREL, PUBCOMP} {
		_, err := BuildAck(Ack{Version: V311, Typ: typ, PacketID: 0})
		require.Error(t, err, typ)
	}
}

func TestSubscribeRoundTrip(t *testing.T) {
	s, err := BuildSubscribe(Subscribe{
		Version:  V311,
		PacketID: 5,
		Entries: []SubscribeEntry{
			{TopicFilter: "a/b", QoS: QoS1},
			{TopicFilter: "c/+/d", QoS: QoS2},
		},
	})
	require.NoError(t, err)

	got := roundTrip(t, V311, s)
	gs, ok := got.(*Subscribe)
	require.True(t, ok)
	require.Equal(t, uint16(5), gs.PacketID)
	require.Len(t, gs.Entries, 2)
	require.Equal(t, "a/b", gs.Entries[0].TopicFilter)
	require.Equal(t, QoS2, gs.Entries[1].QoS)
}

func TestSubscribeRejectsBadWildcardPlacement(t *testing.T) {
	_, err := BuildSubscribe(Subscribe{
		Version:  V311,
		PacketID: 1,
		Entries:  []SubscribeEntry{{TopicFilter: "a/#/b", QoS: QoS0}},
	})
	require.Error(t, err)
}

func TestSubscribeRequiresNonZeroPacketID(t *testing.T) {
	_, err := BuildSubscribe(Subscribe{
		Version:  V311,
		PacketID: 0,
		Entries:  []SubscribeEntry{{TopicFilter: "a", QoS: QoS0}},
	})
	require.Error(t, err)
}

func TestSubscribeRequiresAtLeastOneEntry(t *testing.T) {
	_, err := BuildSubscribe(Subscribe{Version: V311, PacketID: 1})
	require.Error(t, err)
}

func TestSubackRoundTrip(t *testing.T) {
	s, err := BuildSuback(Suback{
		Version:     V311,
		PacketID:    9,
		ReasonCodes: []wire.ReasonCode{wire.ReasonGrantedQoS0, wire.ReasonGrantedQoS2},
	})
	require.NoError(t, err)

	got := roundTrip(t, V311, s)
	gs, ok := got.(*Suback)
	require.True(t, ok)
	require.Equal(t, uint16(9), gs.PacketID)
	require.Equal(t, []wire.ReasonCode{wire.ReasonGrantedQoS0, wire.ReasonGrantedQoS2}, gs.ReasonCodes)
}

func TestSubackRejectsInvalid311Code(t *testing.T) {
	_, err := BuildSuback(Suback{
		Version:     V311,
		PacketID:    1,
		ReasonCodes: []wire.ReasonCode{wire.ReasonProtocolError},
	})
	require.Error(t, err)
}

func TestUnsubscribeRoundTrip(t *testing.T) {
	u, err := BuildUnsubscribe(Unsubscribe{
		Version:      V311,
		PacketID:     3,
		TopicFilters: []wire.Bytes{wire.BytesFromString("a/b"), wire.BytesFromString("c/d")},
	})
	require.NoError(t, err)

	got := roundTrip(t, V311, u)
	gu, ok := got.(*Unsubscribe)
	require.True(t, ok)
	require.Len(t, gu.TopicFilters, 2)
	require.Equal(t, "c/d", gu.TopicFilters[1].String())
}

func TestUnsubackV311MustNotCarryCodes(t *testing.T) {
	_, err := BuildUnsuback(Unsuback{
		Version:     V311,
		PacketID:    1,
		ReasonCodes: []wire.ReasonCode{wire.ReasonSuccess},
	})
	require.Error(t, err)
}

func TestUnsubackV5RequiresCodes(t *testing.T) {
	_, err := BuildUnsuback(Unsuback{Version: V5, PacketID: 1})
	require.Error(t, err)
}

func TestPingRoundTrip(t *testing.T) {
	req := BuildPingreq(V311)
	got := roundTrip(t, V311, req)
	_, ok := got.(*Pingreq)
	require.True(t, ok)

	resp := BuildPingresp(V311)
	got = roundTrip(t, V311, resp)
	_, ok = got.(*Pingresp)
	require.True(t, ok)
}

func TestDisconnectRoundTripV5(t *testing.T) {
	d, err := BuildDisconnect(Disconnect{Version: V5, ReasonCode: wire.ReasonNormalDisconnection})
	require.NoError(t, err)

	got := roundTrip(t, V5, d)
	gd, ok := got.(*Disconnect)
	require.True(t, ok)
	require.Equal(t, wire.ReasonNormalDisconnection, gd.ReasonCode)
}

func TestDisconnectV311MustBeEmpty(t *testing.T) {
	_, err := BuildDisconnect(Disconnect{Version: V311, ReasonCode: wire.ReasonNormalDisconnection})
	require.Error(t, err)
}

func TestAuthRejectedInV311(t *testing.T) {
	_, err := BuildAuth(Auth{Version: V311})
	require.Error(t, err)
}

func TestAuthRoundTripV5(t *testing.T) {
	props := wire.Properties{}
	props.Add(wire.Property{ID: wire.PropAuthenticationMethod, Str: wire.BytesFromString("PLAIN")})
	a, err := BuildAuth(Auth{
		Version:    V5,
		ReasonCode: wire.ReasonContinueAuthentication,
		Properties: props,
	})
	require.NoError(t, err)

	got := roundTrip(t, V5, a)
	ga, ok := got.(*Auth)
	require.True(t, ok)
	require.Equal(t, wire.ReasonContinueAuthentication, ga.ReasonCode)
}

func TestParseInsufficientBytesKeepsRetrying(t *testing.T) {
	p, err := BuildPublish(Publish{
		Version:   V311,
		QoS:       QoS0,
		TopicName: wire.BytesFromString("a/b"),
		Payload:   wire.BytesFromString("x"),
	})
	require.NoError(t, err)
	full, err := Bytes(p)
	require.NoError(t, err)

	_, _, err = Parse(V311, full[:len(full)-1])
	require.Error(t, err)

	got, n, err := Parse(V311, full)
	require.NoError(t, err)
	require.Equal(t, len(full), n)
	require.NotNil(t, got)
}
