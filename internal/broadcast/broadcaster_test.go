package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, sub *Subscription, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	for len(out) < n {
		select {
		case ev, ok := <-sub.C:
			require.True(t, ok, "channel closed before %d events", n)
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestPublishFanOut(t *testing.T) {
	b := New(8)
	first := b.Subscribe("trip-1")
	second := b.Subscribe("trip-1")
	other := b.Subscribe("trip-2")

	b.Publish("trip-1", Event{Type: "trip_status_update", Payload: "ACCEPTED"})

	for _, sub := range []*Subscription{first, second} {
		evs := collect(t, sub, 1)
		assert.Equal(t, "trip_status_update", evs[0].Type)
		assert.Equal(t, "ACCEPTED", evs[0].Payload)
		assert.False(t, evs[0].At.IsZero())
	}

	select {
	case ev := <-other.C:
		t.Fatalf("unrelated subject received %v", ev)
	default:
	}
}

func TestPerSubjectOrdering(t *testing.T) {
	b := New(64)
	sub := b.Subscribe("trip-1")

	for i := 0; i < 50; i++ {
		b.Publish("trip-1", Event{Type: "seq", Payload: i})
	}

	evs := collect(t, sub, 50)
	for i, ev := range evs {
		assert.Equal(t, i, ev.Payload)
	}
}

func TestSlowSubscriberDropsWithoutBlocking(t *testing.T) {
	b := New(2)
	slow := b.Subscribe("trip-1")
	fast := b.Subscribe("trip-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.Publish("trip-1", Event{Type: "seq", Payload: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// fast drained nothing either, both buffers overflowed equally
	assert.Len(t, slow.C, 2)
	assert.Len(t, fast.C, 2)
	assert.Equal(t, uint64(16), b.Dropped())
}

func TestTerminateClosesSubscribers(t *testing.T) {
	b := New(8)
	sub := b.Subscribe("trip-1")

	b.Terminate("trip-1", &Event{Type: "trip_status_update", Payload: "FINISHED"})

	evs := collect(t, sub, 1)
	assert.Equal(t, "FINISHED", evs[0].Payload)

	_, ok := <-sub.C
	assert.False(t, ok, "channel should be closed after terminal event")

	// subject is gone; a fresh subscribe starts a new one
	fresh := b.Subscribe("trip-1")
	assert.Equal(t, 1, b.Subscribers("trip-1"))
	fresh.Cancel()
}

func TestSubscribeAfterTerminateIsClosed(t *testing.T) {
	b := New(8)
	b.Subscribe("trip-1")
	b.Terminate("trip-1", nil)

	// the subject was removed, so this is a brand-new live subject
	sub := b.Subscribe("trip-1")
	b.Publish("trip-1", Event{Type: "seq", Payload: 1})
	evs := collect(t, sub, 1)
	assert.Equal(t, 1, evs[0].Payload)
}

func TestCancelIsIdempotentAndCollects(t *testing.T) {
	b := New(8)
	sub := b.Subscribe("trip-1")
	require.Equal(t, 1, b.Subscribers("trip-1"))

	sub.Cancel()
	sub.Cancel()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers("trip-1"))
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	b := New(128)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe("trip-1")
			for i := 0; i < 20; i++ {
				b.Publish("trip-1", Event{Type: "seq", Payload: i})
			}
			sub.Cancel()
		}()
	}

	wg.Wait()
	b.Terminate("trip-1", nil)
	assert.Equal(t, 0, b.Subscribers("trip-1"))
}
