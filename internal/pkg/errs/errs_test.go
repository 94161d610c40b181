package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"drive-hub/internal/pkg/errs"
)

func TestKindClassification(t *testing.T) {
	t.Run("InvalidRequest", func(t *testing.T) {
		err := errs.InvalidRequest("latitude out of range")
		assert.True(t, errs.IsInvalidRequest(err))
		assert.False(t, errs.IsConflict(err))
		assert.Equal(t, "invalid request: latitude out of range", err.Error())
	})

	t.Run("Conflict", func(t *testing.T) {
		err := errs.Conflict("trip already accepted")
		assert.True(t, errs.IsConflict(err))
		assert.False(t, errs.IsNotFound(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		err := errs.NotFound("trip", "abc-123")
		assert.True(t, errs.IsNotFound(err))
		assert.Contains(t, err.Error(), `trip "abc-123"`)
	})

	t.Run("Internal keeps the cause in the chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := errs.Internal("persist trip", cause)
		assert.True(t, errs.IsInternal(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestCauseWrapping(t *testing.T) {
	cause := errors.New("origin and destination must differ")
	err := errs.InvalidRequestCause(cause)
	assert.True(t, errs.IsInvalidRequest(err))
	assert.ErrorIs(t, err, cause)

	raceCause := errors.New("driver already assigned")
	conflictErr := errs.ConflictCause(raceCause)
	assert.True(t, errs.IsConflict(conflictErr))
	assert.ErrorIs(t, conflictErr, raceCause)
}
