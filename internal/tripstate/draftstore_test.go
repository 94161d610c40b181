package tripstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive-hub/internal/domain/geo"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/pkg/errs"
)

func newDraft(t *testing.T, id, passengerID string, ttl time.Duration) *trip.Draft {
	t.Helper()
	origin, err := geo.NewLocation("1 Main St", 40.7128, -74.0060)
	require.NoError(t, err)
	destination, err := geo.NewLocation("99 Broad Ave", 40.7306, -73.9866)
	require.NoError(t, err)
	d, err := trip.NewDraft(id, passengerID, origin, destination, ttl)
	require.NoError(t, err)
	return d
}

func TestDraftStoreGet(t *testing.T) {
	s := NewDraftStore()
	d := newDraft(t, "draft-1", "passenger-1", time.Minute)
	s.Put(d)

	t.Run("owner reads it back", func(t *testing.T) {
		got, err := s.Get("draft-1", "passenger-1", time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, d.Price, got.Price)
	})

	t.Run("other passengers see not found", func(t *testing.T) {
		_, err := s.Get("draft-1", "passenger-2", time.Now().UTC())
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("expired draft is evicted on read", func(t *testing.T) {
		_, err := s.Get("draft-1", "passenger-1", d.ExpiresAt.Add(time.Second))
		assert.True(t, errs.IsNotFound(err))
		assert.Zero(t, s.Len())
	})
}

func TestDraftStoreConsumeOnce(t *testing.T) {
	s := NewDraftStore()
	s.Put(newDraft(t, "draft-1", "passenger-1", time.Minute))

	now := time.Now().UTC()
	_, err := s.Consume("draft-1", "passenger-1", now)
	require.NoError(t, err)

	_, err = s.Consume("draft-1", "passenger-1", now)
	assert.True(t, errs.IsNotFound(err))
}

func TestDraftStoreConsumeExpired(t *testing.T) {
	s := NewDraftStore()
	d := newDraft(t, "draft-1", "passenger-1", time.Minute)
	s.Put(d)

	_, err := s.Consume("draft-1", "passenger-1", d.ExpiresAt)
	assert.True(t, errs.IsNotFound(err))
	assert.Zero(t, s.Len())
}

func TestDraftStoreSweep(t *testing.T) {
	s := NewDraftStore()
	short := newDraft(t, "draft-short", "passenger-1", time.Millisecond)
	long := newDraft(t, "draft-long", "passenger-2", time.Hour)
	s.Put(short)
	s.Put(long)

	removed := s.Sweep(short.ExpiresAt.Add(time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	_, err := s.Get("draft-long", "passenger-2", time.Now().UTC())
	assert.NoError(t, err)
}
