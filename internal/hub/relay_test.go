package hub

import (
	"encoding/json"
	"realestate-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRelay() *Relay {
	return NewRelay(zap.NewNop().Sugar())
}

func drain(client *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case frame := <-client.send:
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func decodeReceived(t *testing.T, frame []byte) models.Message {
	t.Helper()
	event, payload, err := ParseMessage(frame)
	require.NoError(t, err)
	require.Equal(t, ReceiveMessage, event)

	var message models.Message
	require.NoError(t, json.Unmarshal(payload, &message))
	return message
}

func TestRelay_DeliversToReceiverOnly(t *testing.T) {
	relay := newTestRelay()
	alice := NewClient(1, 8)
	bob := NewClient(2, 8)
	relay.Register(alice)
	relay.Register(bob)

	message := models.Message{ID: 77, SenderID: 1, ReceiverID: 2, Content: "is the flat still available?"}
	assert.Equal(t, Delivered, relay.Relay(message))

	frames := drain(bob)
	require.Len(t, frames, 1)
	assert.Equal(t, message, decodeReceived(t, frames[0]))
	assert.Empty(t, drain(alice))
}

func TestRelay_MissWhenNotConnected(t *testing.T) {
	relay := newTestRelay()
	alice := NewClient(1, 8)
	relay.Register(alice)

	outcome := relay.Relay(models.Message{ID: 1, SenderID: 1, ReceiverID: 2, Content: "hello"})
	assert.Equal(t, Missed, outcome)
	assert.Empty(t, drain(alice))
}

func TestRelay_MissAfterDeregister(t *testing.T) {
	relay := newTestRelay()
	bob := NewClient(2, 8)
	relay.Register(bob)
	require.True(t, relay.Deregister(bob))
	assert.False(t, relay.Deregister(bob))

	assert.Equal(t, Missed, relay.Relay(models.Message{SenderID: 1, ReceiverID: 2, Content: "hello"}))
	assert.Empty(t, drain(bob))
	assert.Equal(t, 0, relay.Connections())
}

func TestRelay_PreservesOrder(t *testing.T) {
	relay := newTestRelay()
	bob := NewClient(2, 16)
	relay.Register(bob)

	contents := []string{"first", "second", "third", "fourth"}
	for i, content := range contents {
		outcome := relay.Relay(models.Message{ID: int64(i + 1), SenderID: 1, ReceiverID: 2, Content: content})
		require.Equal(t, Delivered, outcome)
	}

	frames := drain(bob)
	require.Len(t, frames, len(contents))
	for i, frame := range frames {
		assert.Equal(t, contents[i], decodeReceived(t, frame).Content)
	}
}

func TestRelay_FullBufferDropsConnection(t *testing.T) {
	relay := newTestRelay()
	bob := NewClient(2, 1)
	relay.Register(bob)

	assert.Equal(t, Delivered, relay.Relay(models.Message{ID: 1, SenderID: 1, ReceiverID: 2, Content: "a"}))
	assert.Equal(t, Missed, relay.Relay(models.Message{ID: 2, SenderID: 1, ReceiverID: 2, Content: "b"}))

	assert.False(t, relay.Connected(2))
	select {
	case <-bob.Done():
	default:
		t.Fatal("slow connection was not closed")
	}

	assert.Equal(t, Missed, relay.Relay(models.Message{ID: 3, SenderID: 1, ReceiverID: 2, Content: "c"}))
}

func TestRelay_NewConnectionReplacesOld(t *testing.T) {
	relay := newTestRelay()
	oldConn := NewClient(2, 8)
	newConn := NewClient(2, 8)

	relay.Register(oldConn)
	relay.Register(newConn)
	assert.Equal(t, 1, relay.Connections())

	select {
	case <-oldConn.Done():
	default:
		t.Fatal("replaced connection was not closed")
	}

	// the old connection's disconnect arrives late and must not remove the new one
	assert.False(t, relay.Deregister(oldConn))
	assert.True(t, relay.Connected(2))

	assert.Equal(t, Delivered, relay.Relay(models.Message{ID: 1, SenderID: 1, ReceiverID: 2, Content: "hi"}))
	assert.Len(t, drain(newConn), 1)
	assert.Empty(t, drain(oldConn))
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	a := NewClient(5, 1)
	b := NewClient(5, 1)

	assert.Nil(t, registry.Register(a))
	assert.Nil(t, registry.Register(a), "registering the same connection twice replaces nothing")
	assert.Same(t, a, registry.Register(b))

	got, ok := registry.Lookup(5)
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = registry.Lookup(6)
	assert.False(t, ok)

	assert.False(t, registry.Deregister(a))
	assert.True(t, registry.Deregister(b))
	assert.Equal(t, 0, registry.Len())
}

func TestClientEnqueueAfterClose(t *testing.T) {
	client := NewClient(1, 4)
	assert.True(t, client.enqueue([]byte("x")))
	client.Close()
	client.Close()
	assert.False(t, client.enqueue([]byte("y")))
}

func TestFrames(t *testing.T) {
	frame, err := PrepareMessage(Ack, AckEvent{Ref: "r1", Delivered: true})
	require.NoError(t, err)
	assert.Contains(t, string(frame), "ack\n{")

	event, payload, err := ParseMessage(frame)
	require.NoError(t, err)
	assert.Equal(t, Ack, event)

	var ack AckEvent
	require.NoError(t, json.Unmarshal(payload, &ack))
	assert.Equal(t, "r1", ack.Ref)
	assert.True(t, ack.Delivered)

	_, _, err = ParseMessage([]byte("no newline"))
	assert.Error(t, err)
	_, _, err = ParseMessage([]byte("\n{}"))
	assert.Error(t, err)
}
