package service

import (
	"context"
	"sync"
	"testing"

	"drive-hub/internal/domain/duty"
	"drive-hub/internal/domain/user"
	"drive-hub/internal/general/logger"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUOW struct{}

func (stubUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*user.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errs.NotFound("user", id)
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*duty.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*duty.Session)}
}

func (r *memSessionRepo) Start(_ context.Context, driverID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := duty.NewSession(driverID)
	if err != nil {
		return "", err
	}
	s.ID = uuid.NewString()
	r.sessions[s.ID] = s
	return s.ID, nil
}

func (r *memSessionRepo) End(_ context.Context, sessionID string, summary duty.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.EndedAt = summary.EndedAt
		s.TotalTrips = summary.TotalTrips
		s.TotalEarnings = summary.TotalEarnings
	}
	return nil
}

func (r *memSessionRepo) GetActiveForDriver(_ context.Context, driverID string) (*duty.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.DriverID == driverID && s.Active() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) IncrementCounters(_ context.Context, sessionID string, totalTrips int, totalEarnings float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.TotalTrips += totalTrips
		s.TotalEarnings += totalEarnings
	}
	return nil
}

func newTestDutyService(t *testing.T) (ports.DutyService, *memUserRepo, *memSessionRepo) {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	svc := NewDutyService(logger.New("duty-service-test"), stubUOW{}, users, sessions)
	return svc, users, sessions
}

func seedDriver(t *testing.T, users *memUserRepo, id string) {
	t.Helper()
	u, err := user.NewUser("driver@example.com", "Test Driver", user.RoleDriver, "hash", nil)
	require.NoError(t, err)
	u.ID = id
	require.NoError(t, users.CreateUser(context.Background(), u))
}

func TestGoOnDutyStartsSession(t *testing.T) {
	svc, users, _ := newTestDutyService(t)
	seedDriver(t, users, "driver-1")

	res, err := svc.GoOnDuty(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, duty.StatusOnDuty.String(), res.Status)
	assert.NotEmpty(t, res.SessionID)
}

func TestGoOnDutyIdempotentOnReconnect(t *testing.T) {
	svc, users, _ := newTestDutyService(t)
	seedDriver(t, users, "driver-1")
	ctx := context.Background()

	first, err := svc.GoOnDuty(ctx, "driver-1")
	require.NoError(t, err)

	second, err := svc.GoOnDuty(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestGoOnDutyRejectsNonDrivers(t *testing.T) {
	svc, users, _ := newTestDutyService(t)

	u, err := user.NewUser("rider@example.com", "Test Rider", user.RolePassenger, "hash", nil)
	require.NoError(t, err)
	u.ID = "passenger-1"
	require.NoError(t, users.CreateUser(context.Background(), u))

	_, err = svc.GoOnDuty(context.Background(), "passenger-1")
	assert.True(t, errs.IsInvalidRequest(err))

	_, err = svc.GoOnDuty(context.Background(), "nobody")
	assert.True(t, errs.IsNotFound(err))
}

func TestGoOffDutySummarizesSession(t *testing.T) {
	svc, users, _ := newTestDutyService(t)
	seedDriver(t, users, "driver-1")
	ctx := context.Background()

	on, err := svc.GoOnDuty(ctx, "driver-1")
	require.NoError(t, err)

	require.NoError(t, svc.CreditTrip(ctx, "driver-1", 12.50))
	require.NoError(t, svc.CreditTrip(ctx, "driver-1", 7.25))

	off, err := svc.GoOffDuty(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, duty.StatusOffDuty.String(), off.Status)
	assert.Equal(t, on.SessionID, off.SessionID)
	assert.Equal(t, 2, off.DutySummary.TripsCompleted)
	assert.InDelta(t, 19.75, off.DutySummary.Earnings, 1e-9)
	assert.GreaterOrEqual(t, off.DutySummary.DurationHours, 0.0)

	// second GoOffDuty has nothing to close
	_, err = svc.GoOffDuty(ctx, "driver-1")
	assert.True(t, errs.IsNotFound(err))
}

func TestCreditTripWithoutSessionIsDropped(t *testing.T) {
	svc, users, sessions := newTestDutyService(t)
	seedDriver(t, users, "driver-1")

	require.NoError(t, svc.CreditTrip(context.Background(), "driver-1", 5.0))
	assert.Empty(t, sessions.sessions)

	err := svc.CreditTrip(context.Background(), "driver-1", -1)
	assert.True(t, errs.IsInvalidRequest(err))
}
