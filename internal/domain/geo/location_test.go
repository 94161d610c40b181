package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	t.Run("trims the address", func(t *testing.T) {
		loc, err := NewLocation("  1 Main St ", 40.7, -74.0)
		require.NoError(t, err)
		assert.Equal(t, "1 Main St", loc.Address)
	})

	t.Run("rejects empty address", func(t *testing.T) {
		_, err := NewLocation("   ", 40.7, -74.0)
		assert.ErrorIs(t, err, ErrEmptyAddress)
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		_, err := NewLocation("somewhere", 91, 0)
		assert.ErrorIs(t, err, ErrInvalidLatitude)
		_, err = NewLocation("somewhere", 0, -181)
		assert.ErrorIs(t, err, ErrInvalidLongitude)
	})
}

func TestSamePlace(t *testing.T) {
	a := Location{Address: "1 Main St", Latitude: 40.7128, Longitude: -74.0060}

	t.Run("matches by address regardless of case", func(t *testing.T) {
		b := Location{Address: "1 main st", Latitude: 41.0, Longitude: -75.0}
		assert.True(t, a.SamePlace(b))
	})

	t.Run("matches by proximity regardless of address", func(t *testing.T) {
		b := Location{Address: "Main St front door", Latitude: 40.71281, Longitude: -74.00601}
		assert.True(t, a.SamePlace(b))
	})

	t.Run("distinct places differ", func(t *testing.T) {
		b := Location{Address: "99 Broad Ave", Latitude: 40.7306, Longitude: -73.9866}
		assert.False(t, a.SamePlace(b))
	})
}

func TestHaversineKM(t *testing.T) {
	// NYC to LA is roughly 3936 km
	d := HaversineKM(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 3936, d, 10)

	assert.Zero(t, HaversineKM(40.7, -74.0, 40.7, -74.0))
}
