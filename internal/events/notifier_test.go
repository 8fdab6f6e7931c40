package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	first := hub.Subscribe()
	second := hub.Subscribe()
	defer hub.Unsubscribe(first)
	defer hub.Unsubscribe(second)

	change := Change{Entity: EntityOrder, Action: ActionUpdated, ID: 42, At: time.Now()}
	hub.Publish(change)

	for _, ch := range []chan Change{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, EntityOrder, got.Entity)
			assert.Equal(t, int64(42), got.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the change")
		}
	}
}

func TestHubSkipsFullSubscriber(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe()
	defer hub.Unsubscribe(slow)

	// Overflow the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(slow)+10; i++ {
			hub.Publish(Change{Entity: EntityMenu, Action: ActionUpdated, ID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Equal(t, cap(slow), len(slow))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op.
	hub.Unsubscribe(ch)
}

func TestMultiPublisherFansOut(t *testing.T) {
	hub1 := NewHub()
	hub2 := NewHub()
	sub1 := hub1.Subscribe()
	sub2 := hub2.Subscribe()

	multi := MultiPublisher{hub1, hub2}
	multi.Publish(Change{Entity: EntityBill, Action: ActionCreated, ID: 7})

	require.Len(t, sub1, 1)
	require.Len(t, sub2, 1)
	assert.Equal(t, EntityBill, (<-sub1).Entity)
	assert.Equal(t, EntityBill, (<-sub2).Entity)
}
