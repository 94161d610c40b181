package duty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive-hub/internal/broadcast"
)

func TestRegisterAndOffer(t *testing.T) {
	r := NewRegistry(8)
	sub := r.Register("driver-1", "session-1")

	require.True(t, r.IsOnDuty("driver-1"))
	sid, ok := r.SessionID("driver-1")
	require.True(t, ok)
	assert.Equal(t, "session-1", sid)

	require.True(t, r.Offer("driver-1", broadcast.Event{Type: "trip_offer", Payload: "trip-1"}))

	select {
	case ev := <-sub.C:
		assert.Equal(t, "trip_offer", ev.Type)
		assert.Equal(t, "trip-1", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("offer never arrived")
	}
}

func TestOfferToOffDutyDriver(t *testing.T) {
	r := NewRegistry(8)
	assert.False(t, r.Offer("driver-1", broadcast.Event{Type: "trip_offer"}))
	assert.Zero(t, r.Count())
}

func TestRegisterReplacesPreviousSubscription(t *testing.T) {
	r := NewRegistry(8)
	old := r.Register("driver-1", "session-1")
	fresh := r.Register("driver-1", "session-1")

	// old channel closed synchronously by the replacement
	_, ok := <-old.C
	assert.False(t, ok, "replaced subscription must be closed")

	require.True(t, r.Offer("driver-1", broadcast.Event{Type: "trip_offer", Payload: "trip-9"}))
	select {
	case ev := <-fresh.C:
		assert.Equal(t, "trip-9", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("offer never reached the fresh subscription")
	}
	assert.Equal(t, 1, r.Count())
}

func TestDeregister(t *testing.T) {
	r := NewRegistry(8)
	sub := r.Register("driver-1", "session-1")

	assert.True(t, r.Deregister("driver-1", sub))
	assert.False(t, r.IsOnDuty("driver-1"))

	_, ok := <-sub.C
	assert.False(t, ok, "deregistered subscription must be closed")

	// a second teardown finds nothing to remove
	assert.False(t, r.Deregister("driver-1", sub))
}

func TestStaleDeregisterDoesNotAffectNewRegistration(t *testing.T) {
	r := NewRegistry(8)
	stale := r.Register("driver-1", "session-1")
	fresh := r.Register("driver-1", "session-2")

	// the old socket's deferred teardown fires after the reconnect; it
	// must report false so the caller leaves the duty session open
	assert.False(t, r.Deregister("driver-1", stale))

	assert.True(t, r.IsOnDuty("driver-1"))
	require.True(t, r.Offer("driver-1", broadcast.Event{Type: "trip_offer", Payload: "trip-2"}))
	select {
	case ev := <-fresh.C:
		assert.Equal(t, "trip-2", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("offer lost after stale deregister")
	}
}

func TestBroadcast(t *testing.T) {
	r := NewRegistry(8)
	subA := r.Register("driver-a", "sa")
	subB := r.Register("driver-b", "sb")

	n := r.Broadcast(broadcast.Event{Type: "trip_offer", Payload: "trip-1"}, nil)
	assert.Equal(t, 2, n)

	for _, sub := range []*broadcast.Subscription{subA, subB} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, "trip-1", ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("broadcast missed a driver")
		}
	}
}

func TestBroadcastFiltersDrivers(t *testing.T) {
	r := NewRegistry(8)
	busy := r.Register("driver-busy", "sa")
	idle := r.Register("driver-idle", "sb")

	n := r.Broadcast(broadcast.Event{Type: "trip_offer", Payload: "trip-2"}, func(driverID string) bool {
		return driverID != "driver-busy"
	})
	assert.Equal(t, 1, n)

	select {
	case ev := <-idle.C:
		assert.Equal(t, "trip-2", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("offer never reached the idle driver")
	}

	select {
	case ev := <-busy.C:
		t.Fatalf("filtered driver received an offer: %v", ev.Type)
	default:
	}
}
