package topic

import (
	"context"
	"testing"

	"github.com/packetloop/mqttengine/wire"
	"github.com/stretchr/testify/assert"
)

func TestRouter_RetainedMessages(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Router)
		test    func(*testing.T, *Router)
		wantErr bool
	}{
		{
			name:  "set and get retained message",
			setup: func(r *Router) {},
			test: func(t *testing.T, r *Router) {
				ctx := context.Background()
				msg := buildRetained(t, "test/topic", "retained data", 0)
				retained := &RetainedMessage{Topic: "test/topic", Message: msg}

				err := r.SetRetainedMessage(ctx, retained)
				assert.NoError(t, err)

				messages, err := r.GetRetainedMessages(ctx, "test/topic")
				assert.NoError(t, err)
				assert.Len(t, messages, 1)
				assert.Equal(t, "test/topic", messages[0].Topic)
				assert.Equal(t, "retained data", messages[0].Message.Payload.String())
			},
		},
		{
			name: "get retained messages with wildcard filter",
			setup: func(r *Router) {
				ctx := context.Background()
				msg1 := buildRetained(t, "home/room1/temp", "data1", 0)
				msg2 := buildRetained(t, "home/room2/temp", "data2", 0)
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "home/room1/temp", Message: msg1})
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "home/room2/temp", Message: msg2})
			},
			test: func(t *testing.T, r *Router) {
				ctx := context.Background()
				messages, err := r.GetRetainedMessages(ctx, "home/+/temp")
				assert.NoError(t, err)
				assert.Len(t, messages, 2)
			},
		},
		{
			name: "delete retained message with empty payload",
			setup: func(r *Router) {
				ctx := context.Background()
				msg := buildRetained(t, "test/topic", "data", 0)
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "test/topic", Message: msg})
			},
			test: func(t *testing.T, r *Router) {
				ctx := context.Background()

				messages, err := r.GetRetainedMessages(ctx, "test/topic")
				assert.NoError(t, err)
				assert.Len(t, messages, 1)

				emptyMsg := buildRetained(t, "test/topic", "", 0)
				err = r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "test/topic", Message: emptyMsg})
				assert.NoError(t, err)

				messages, err = r.GetRetainedMessages(ctx, "test/topic")
				assert.NoError(t, err)
				assert.Len(t, messages, 0)
			},
		},
		{
			name: "delete retained message explicitly",
			setup: func(r *Router) {
				ctx := context.Background()
				msg := buildRetained(t, "test/topic", "data", 0)
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "test/topic", Message: msg})
			},
			test: func(t *testing.T, r *Router) {
				ctx := context.Background()

				err := r.DeleteRetainedMessage(ctx, "test/topic")
				assert.NoError(t, err)

				messages, err := r.GetRetainedMessages(ctx, "test/topic")
				assert.NoError(t, err)
				assert.Len(t, messages, 0)
			},
		},
		{
			name: "count retained messages",
			setup: func(r *Router) {
				ctx := context.Background()
				for i := 0; i < 5; i++ {
					msg := buildRetained(t, "test/topic", "data", 0)
					r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "test/topic", Message: msg})
				}
			},
			test: func(t *testing.T, r *Router) {
				ctx := context.Background()
				count, err := r.RetainedMessageCount(ctx)
				assert.NoError(t, err)
				assert.Equal(t, int64(1), count)
			},
		},
		{
			name: "multiple topics retained messages",
			setup: func(r *Router) {
				ctx := context.Background()
				msg1 := buildRetained(t, "topic1", "data1", 0)
				msg2 := buildRetained(t, "topic2", "data2", 0)
				msg3 := buildRetained(t, "topic3", "data3", 0)
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "topic1", Message: msg1})
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "topic2", Message: msg2})
				r.SetRetainedMessage(ctx, &RetainedMessage{Topic: "topic3", Message: msg3})
			},
			test: func(t *testing.T, r *Router) {
				ctx := context.Background()
				count, err := r.RetainedMessageCount(ctx)
				assert.NoError(t, err)
				assert.Equal(t, int64(3), count)

				messages, err := r.GetRetainedMessages(ctx, "#")
				assert.NoError(t, err)
				assert.Len(t, messages, 3)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter()
			defer router.Close()

			if tt.setup != nil {
				tt.setup(router)
			}

			if tt.test != nil {
				tt.test(t, router)
			}
		})
	}
}

func TestRouter_RetainedMessagesWithSubscription(t *testing.T) {
	router := NewRouter()
	defer router.Close()

	ctx := context.Background()

	msg := buildRetained(t, "home/temperature", "25.5", 0)
	err := router.SetRetainedMessage(ctx, &RetainedMessage{Topic: "home/temperature", Message: msg})
	assert.NoError(t, err)

	sub := &Subscription{
		ClientID:          "client1",
		TopicFilter:       "home/+",
		QoS:               1,
		RetainHandling:    0,
		RetainAsPublished: true,
	}
	err = router.Subscribe(sub)
	assert.NoError(t, err)

	messages, err := router.GetRetainedMessages(ctx, "home/+")
	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, "home/temperature", messages[0].Topic)
}

func TestRouter_RetainedMessagesWithExpiry(t *testing.T) {
	router := NewRouter()
	defer router.Close()

	ctx := context.Background()

	msg := buildRetained(t, "test/expiry", "expires soon", 60)
	err := router.SetRetainedMessage(ctx, &RetainedMessage{Topic: "test/expiry", Message: msg})
	assert.NoError(t, err)

	messages, err := router.GetRetainedMessages(ctx, "test/expiry")
	assert.NoError(t, err)
	assert.Len(t, messages, 1)

	var found bool
	for _, prop := range messages[0].Message.Properties.Items() {
		if prop.ID == wire.PropMessageExpiryInterval {
			found = true
			assert.Equal(t, uint32(60), prop.Int32)
		}
	}
	assert.True(t, found)
}

func TestRouter_ConcurrentRetainedOperations(t *testing.T) {
	router := NewRouter()
	defer router.Close()

	ctx := context.Background()
	done := make(chan bool)
	numGoroutines := 10
	numOperations := 100

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numOperations; j++ {
				msg := buildRetained(t, "test/topic", "data", 0)
				router.SetRetainedMessage(ctx, &RetainedMessage{Topic: "test/topic", Message: msg})
				router.GetRetainedMessages(ctx, "test/topic")
				router.RetainedMessageCount(ctx)
				if j%10 == 0 {
					router.DeleteRetainedMessage(ctx, "test/topic")
				}
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
}
