package tripstate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive-hub/internal/domain/geo"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
)

func newTrip(t *testing.T, id, passengerID string) *trip.Trip {
	t.Helper()
	origin, err := geo.NewLocation("1 Main St", 40.7128, -74.0060)
	require.NoError(t, err)
	destination, err := geo.NewLocation("99 Broad Ave", 40.7306, -73.9866)
	require.NoError(t, err)
	tr, err := trip.NewTrip(id, passengerID, origin, destination, 12.50, false)
	require.NoError(t, err)
	return tr
}

func TestAddEnforcesOneActiveTripPerPassenger(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))

	err := r.Add(newTrip(t, "trip-2", "passenger-1"))
	assert.True(t, errs.IsConflict(err))

	require.NoError(t, r.Add(newTrip(t, "trip-3", "passenger-2")))
	assert.Equal(t, 2, r.Count())
}

func TestGetReturnsClones(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))

	got, err := r.Get("trip-1")
	require.NoError(t, err)
	got.PassengerID = "tampered"

	again, err := r.Get("trip-1")
	require.NoError(t, err)
	assert.Equal(t, "passenger-1", again.PassengerID)

	_, err = r.Get("nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestAcceptRaceHasExactlyOneWinner(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))

	const drivers = 16
	var wg sync.WaitGroup
	results := make([]error, drivers)

	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = r.Accept("trip-1", fmt.Sprintf("driver-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.True(t, errs.IsConflict(err), "loser must see a conflict, got %v", err)
		}
	}
	assert.Equal(t, 1, winners)

	got, err := r.Get("trip-1")
	require.NoError(t, err)
	assert.Equal(t, trip.StatusAccepted, got.Status)
	require.NotNil(t, got.DriverID)

	// the winner is indexed as busy
	active, err := r.ActiveForDriver(*got.DriverID)
	require.NoError(t, err)
	assert.Equal(t, "trip-1", active.ID)
}

func TestAcceptRejectsBusyDriver(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))
	require.NoError(t, r.Add(newTrip(t, "trip-2", "passenger-2")))

	_, err := r.Accept("trip-1", "driver-1")
	require.NoError(t, err)

	_, err = r.Accept("trip-2", "driver-1")
	assert.True(t, errs.IsConflict(err))
}

func TestReleaseReopensFailedClaim(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))

	_, err := r.Accept("trip-1", "driver-1")
	require.NoError(t, err)

	require.True(t, r.Release("trip-1", "driver-1"))

	got, err := r.Get("trip-1")
	require.NoError(t, err)
	assert.Equal(t, trip.StatusCreated, got.Status)
	assert.Nil(t, got.DriverID)

	// driver slot is free again, another claim wins cleanly
	_, err = r.Accept("trip-1", "driver-2")
	require.NoError(t, err)
	_, err = r.ActiveForDriver("driver-1")
	assert.True(t, errs.IsNotFound(err))
}

func TestReleaseIgnoresProgressedTrips(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))

	_, err := r.Accept("trip-1", "driver-1")
	require.NoError(t, err)
	_, err = r.Mutate("trip-1", func(tr *trip.Trip) error { return tr.Start() })
	require.NoError(t, err)

	assert.False(t, r.Release("trip-1", "driver-1"))
	got, err := r.Get("trip-1")
	require.NoError(t, err)
	assert.Equal(t, trip.StatusInProgress, got.Status)

	// wrong driver never releases anything
	assert.False(t, r.Release("trip-1", "driver-2"))
}

func TestMutateEvictsTerminalTrips(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))
	_, err := r.Accept("trip-1", "driver-1")
	require.NoError(t, err)

	done, err := r.Mutate("trip-1", func(tr *trip.Trip) error { return tr.Finish() })
	require.NoError(t, err)
	assert.Equal(t, trip.StatusFinished, done.Status)

	_, err = r.Get("trip-1")
	assert.True(t, errs.IsNotFound(err))
	_, err = r.ActiveForPassenger("passenger-1")
	assert.True(t, errs.IsNotFound(err))
	_, err = r.ActiveForDriver("driver-1")
	assert.True(t, errs.IsNotFound(err))

	// the passenger may start a new trip immediately
	require.NoError(t, r.Add(newTrip(t, "trip-2", "passenger-1")))
}

func TestMutateErrorLeavesTripActive(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(newTrip(t, "trip-1", "passenger-1")))

	_, err := r.Mutate("trip-1", func(tr *trip.Trip) error { return tr.Start() })
	assert.ErrorIs(t, err, trip.ErrNoDriverAssigned)

	got, err := r.Get("trip-1")
	require.NoError(t, err)
	assert.Equal(t, trip.StatusCreated, got.Status)
}

func TestHydrate(t *testing.T) {
	r := NewRegistry()
	first := newTrip(t, "trip-1", "passenger-1")
	require.NoError(t, first.Accept("driver-1"))
	dup := newTrip(t, "trip-2", "passenger-1") // same passenger, invalid second active row

	loaded, skipped := r.Hydrate([]*trip.Trip{first, dup, newTrip(t, "trip-3", "passenger-3")})
	assert.Equal(t, 2, loaded)
	assert.Equal(t, []string{"trip-2"}, skipped)

	active, err := r.ActiveForDriver("driver-1")
	require.NoError(t, err)
	assert.Equal(t, "trip-1", active.ID)
}
