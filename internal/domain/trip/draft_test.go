package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive-hub/internal/domain/geo"
)

func TestNewDraft(t *testing.T) {
	origin, destination := testRoute(t)

	t.Run("prices the route and stamps expiry", func(t *testing.T) {
		draft, err := NewDraft("draft-1", "passenger-1", origin, destination, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, PriceFor(origin, destination), draft.Price)
		assert.Greater(t, draft.Price, 0.0)
		assert.Equal(t, 5*time.Minute, draft.ExpiresAt.Sub(draft.CreatedAt))
	})

	t.Run("rejects identical origin and destination", func(t *testing.T) {
		_, err := NewDraft("draft-1", "passenger-1", origin, origin, 5*time.Minute)
		assert.ErrorIs(t, err, ErrSameOriginDestination)
	})

	t.Run("rejects nearly identical coordinates with different address text", func(t *testing.T) {
		closeBy, err := geo.NewLocation("1 Main Street (front door)", origin.Latitude+0.00001, origin.Longitude)
		require.NoError(t, err)
		_, err = NewDraft("draft-1", "passenger-1", origin, closeBy, 5*time.Minute)
		assert.ErrorIs(t, err, ErrSameOriginDestination)
	})

	t.Run("rejects invalid locations", func(t *testing.T) {
		bad := geo.Location{Address: "", Latitude: 0, Longitude: 0}
		_, err := NewDraft("draft-1", "passenger-1", bad, destination, 5*time.Minute)
		assert.ErrorIs(t, err, geo.ErrEmptyAddress)
	})
}

func TestDraftExpired(t *testing.T) {
	origin, destination := testRoute(t)
	draft, err := NewDraft("draft-1", "passenger-1", origin, destination, time.Minute)
	require.NoError(t, err)

	assert.False(t, draft.Expired(draft.CreatedAt))
	assert.False(t, draft.Expired(draft.ExpiresAt.Add(-time.Second)))
	assert.True(t, draft.Expired(draft.ExpiresAt))
	assert.True(t, draft.Expired(draft.ExpiresAt.Add(time.Hour)))
}

func TestPriceFor(t *testing.T) {
	origin, destination := testRoute(t)

	price := PriceFor(origin, destination)
	assert.Greater(t, price, baseFare)

	// package trips cost a flat surcharge more
	assert.InDelta(t, price+packageSurcharge, PackagePrice(price), 0.001)

	// longer routes cost more
	farther, err := geo.NewLocation("far away", destination.Latitude+0.5, destination.Longitude+0.5)
	require.NoError(t, err)
	assert.Greater(t, PriceFor(origin, farther), price)
}

func TestEstimateDurationMinutes(t *testing.T) {
	assert.Equal(t, 1, EstimateDurationMinutes(0))
	assert.Equal(t, 1, EstimateDurationMinutes(0.1))
	// 21 km at 21 km/h is exactly an hour
	assert.Equal(t, 60, EstimateDurationMinutes(21))
}
