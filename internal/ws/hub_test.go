package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishOnNilHub(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() {
		h.Publish(Event{Type: "product", Action: "product_created"})
	})
}

func TestHub_PublishQueuesEncodedEvent(t *testing.T) {
	h := NewHub(nil)

	h.Publish(Event{
		Type:    "product",
		Action:  "product_updated",
		Product: map[string]interface{}{"name": "Tee"},
		Message: "Ana updated product 'Tee'",
	})

	require.Len(t, h.Broadcast, 1)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &got))
	assert.Equal(t, "product", got["type"])
	assert.Equal(t, "product_updated", got["action"])
	assert.Equal(t, map[string]interface{}{"name": "Tee"}, got["product"])
	assert.NotContains(t, got, "actor")
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+50; i++ {
			h.Publish(Event{Type: "product", Action: "product_created"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
	assert.Len(t, h.Broadcast, broadcastBuffer)
}

func TestHub_RunDrainsAndStops(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	h.Publish(Event{Type: "product", Action: "product_deleted"})
	assert.Eventually(t, func() bool { return len(h.Broadcast) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, h.ClientCount())

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHub_JoinAndLeaveAfterStop(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	returned := make(chan bool)
	go func() {
		h.Leave(nil)
		returned <- h.Join(nil)
	}()

	select {
	case joined := <-returned:
		assert.False(t, joined)
	case <-time.After(time.Second):
		t.Fatal("Join/Leave blocked on a stopped hub")
	}
}
