package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive-hub/internal/domain/geo"
)

func testRoute(t *testing.T) (geo.Location, geo.Location) {
	t.Helper()
	origin, err := geo.NewLocation("1 Main St", 40.7128, -74.0060)
	require.NoError(t, err)
	destination, err := geo.NewLocation("99 Broad Ave", 40.7306, -73.9866)
	require.NoError(t, err)
	return origin, destination
}

func newTestTrip(t *testing.T) *Trip {
	t.Helper()
	origin, destination := testRoute(t)
	tr, err := NewTrip("trip-1", "passenger-1", origin, destination, 12.50, false)
	require.NoError(t, err)
	return tr
}

func TestNewTrip(t *testing.T) {
	origin, destination := testRoute(t)

	t.Run("starts in CREATED with no driver", func(t *testing.T) {
		tr, err := NewTrip("trip-1", "passenger-1", origin, destination, 12.50, true)
		require.NoError(t, err)
		assert.Equal(t, StatusCreated, tr.Status)
		assert.Nil(t, tr.DriverID)
		assert.True(t, tr.SendPackage)
		assert.True(t, tr.Active())
	})

	t.Run("rejects empty passenger", func(t *testing.T) {
		_, err := NewTrip("trip-1", "  ", origin, destination, 12.50, false)
		assert.ErrorIs(t, err, ErrPassengerRequired)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		_, err := NewTrip("trip-1", "passenger-1", origin, destination, 0, false)
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestTripAccept(t *testing.T) {
	t.Run("assigns driver and moves to ACCEPTED", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Accept("driver-1"))
		assert.Equal(t, StatusAccepted, tr.Status)
		require.NotNil(t, tr.DriverID)
		assert.Equal(t, "driver-1", *tr.DriverID)
		assert.NotNil(t, tr.AcceptedAt)
	})

	t.Run("second accept loses", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Accept("driver-1"))
		assert.ErrorIs(t, tr.Accept("driver-2"), ErrAlreadyAssigned)
		assert.Equal(t, "driver-1", *tr.DriverID)
	})

	t.Run("rejects empty driver", func(t *testing.T) {
		tr := newTestTrip(t)
		assert.ErrorIs(t, tr.Accept(""), ErrDriverRequired)
	})

	t.Run("rejects accept on cancelled trip", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Cancel("changed my mind"))
		assert.ErrorIs(t, tr.Accept("driver-1"), ErrInvalidStatusTransition)
	})
}

func TestTripLifecycle(t *testing.T) {
	t.Run("full trip path", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Accept("driver-1"))
		require.NoError(t, tr.Start())
		assert.Equal(t, StatusInProgress, tr.Status)
		require.NoError(t, tr.Finish())
		assert.Equal(t, StatusFinished, tr.Status)
		assert.NotNil(t, tr.FinishedAt)
		assert.False(t, tr.Active())
	})

	t.Run("finish directly from ACCEPTED", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Accept("driver-1"))
		require.NoError(t, tr.Finish())
		assert.Equal(t, StatusFinished, tr.Status)
	})

	t.Run("start requires a driver", func(t *testing.T) {
		tr := newTestTrip(t)
		assert.ErrorIs(t, tr.Start(), ErrNoDriverAssigned)
	})

	t.Run("finish before accept is rejected", func(t *testing.T) {
		tr := newTestTrip(t)
		assert.ErrorIs(t, tr.Finish(), ErrNoDriverAssigned)
	})
}

func TestTripCancel(t *testing.T) {
	t.Run("cancellable from every non-terminal status", func(t *testing.T) {
		for _, setup := range []func(*Trip){
			func(tr *Trip) {},
			func(tr *Trip) { _ = tr.Accept("driver-1") },
			func(tr *Trip) { _ = tr.Accept("driver-1"); _ = tr.Start() },
		} {
			tr := newTestTrip(t)
			setup(tr)
			require.NoError(t, tr.Cancel("weather"))
			assert.Equal(t, StatusCancelled, tr.Status)
			require.NotNil(t, tr.CancellationReason)
			assert.Equal(t, "weather", *tr.CancellationReason)
		}
	})

	t.Run("double cancel is rejected", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Cancel("weather"))
		assert.ErrorIs(t, tr.Cancel("again"), ErrInvalidStatusTransition)
	})

	t.Run("cancel after finish is rejected", func(t *testing.T) {
		tr := newTestTrip(t)
		require.NoError(t, tr.Accept("driver-1"))
		require.NoError(t, tr.Finish())
		assert.ErrorIs(t, tr.Cancel("too late"), ErrInvalidStatusTransition)
	})
}

func TestTripClone(t *testing.T) {
	tr := newTestTrip(t)
	require.NoError(t, tr.Accept("driver-1"))
	tr.RecordDriverLocation(40.72, -74.0, time.Now().UTC())

	cp := tr.Clone()
	*cp.DriverID = "driver-other"
	cp.LastDriverLocation.Latitude = 0

	assert.Equal(t, "driver-1", *tr.DriverID)
	assert.Equal(t, 40.72, tr.LastDriverLocation.Latitude)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusCreated.CanTransitionTo(StatusAccepted))
	assert.True(t, StatusAccepted.CanTransitionTo(StatusFinished))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCreated.CanTransitionTo(StatusInProgress))
	assert.False(t, StatusFinished.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusCreated))
	assert.True(t, StatusFinished.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusAccepted.Terminal())
}
