package service

import (
	"context"
	"sync"
	"time"

	"drive-hub/internal/broadcast"
	"drive-hub/internal/domain/duty"
	"drive-hub/internal/domain/trip"
	"drive-hub/internal/general/config"
	"drive-hub/internal/general/logger"
	"drive-hub/internal/ports"
	"drive-hub/internal/tripstate"

	dutyreg "drive-hub/internal/duty"
)

// ----- in-memory test doubles -----

type stubUOW struct{}

func (stubUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memTripRepo struct {
	mu    sync.Mutex
	trips map[string]*trip.Trip

	// injected failures, one per write path
	assignErr error
	updateErr error
	cancelErr error
}

func newMemTripRepo() *memTripRepo {
	return &memTripRepo{trips: make(map[string]*trip.Trip)}
}

func (r *memTripRepo) CreateTrip(_ context.Context, t *trip.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[t.ID] = t.Clone()
	return nil
}

func (r *memTripRepo) GetByID(_ context.Context, id string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trips[id]; ok {
		return t.Clone(), nil
	}
	return nil, nil
}

func (r *memTripRepo) GetActiveForPassenger(_ context.Context, passengerID string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trips {
		if t.PassengerID == passengerID && t.Active() {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memTripRepo) GetActiveForDriver(_ context.Context, driverID string) (*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trips {
		if t.DriverID != nil && *t.DriverID == driverID && t.Active() {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memTripRepo) AssignDriver(_ context.Context, tripID, driverID string, acceptedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignErr != nil {
		return r.assignErr
	}
	if t, ok := r.trips[tripID]; ok {
		t.DriverID = &driverID
		t.AcceptedAt = &acceptedAt
		t.Status = trip.StatusAccepted
	}
	return nil
}

func (r *memTripRepo) UpdateStatus(_ context.Context, id string, status trip.Status, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if t, ok := r.trips[id]; ok {
		t.Status = status
	}
	return nil
}

func (r *memTripRepo) Cancel(_ context.Context, tripID, reason string, cancelledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelErr != nil {
		return r.cancelErr
	}
	if t, ok := r.trips[tripID]; ok {
		t.Status = trip.StatusCancelled
		t.CancellationReason = &reason
		t.CancelledAt = &cancelledAt
	}
	return nil
}

func (r *memTripRepo) SaveDriverLocation(_ context.Context, tripID string, loc trip.DriverLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trips[tripID]; ok {
		t.LastDriverLocation = &loc
	}
	return nil
}

func (r *memTripRepo) ListActive(_ context.Context) ([]*trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*trip.Trip
	for _, t := range r.trips {
		if t.Active() {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

type memDraftRepo struct {
	mu       sync.Mutex
	created  []string
	consumed map[string]string // draft id -> trip id

	createErr error
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{consumed: make(map[string]string)}
}

func (r *memDraftRepo) CreateDraft(_ context.Context, d *trip.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, d.ID)
	return nil
}

func (r *memDraftRepo) MarkConsumed(_ context.Context, draftID, tripID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumed[draftID] = tripID
	return nil
}

func (r *memDraftRepo) DeleteExpiredBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*trip.Event
}

func (r *memEventRepo) Append(_ context.Context, e *trip.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memEventRepo) ListForTrip(_ context.Context, tripID string) ([]*trip.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*trip.Event
	for _, e := range r.events {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordedMessage struct {
	exchange string
	key      string
	body     []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (p *fakePublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, recordedMessage{exchange: exchange, key: routingKey, body: body})
	return nil
}

func (p *fakePublisher) byExchange(exchange string) []recordedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedMessage
	for _, m := range p.messages {
		if m.exchange == exchange {
			out = append(out, m)
		}
	}
	return out
}

type fakeDutyService struct {
	mu      sync.Mutex
	credits map[string]float64
}

func newFakeDutyService() *fakeDutyService {
	return &fakeDutyService{credits: make(map[string]float64)}
}

func (s *fakeDutyService) GoOnDuty(_ context.Context, driverID string) (ports.GoOnDutyResult, error) {
	return ports.GoOnDutyResult{Status: duty.StatusOnDuty.String(), SessionID: "session-" + driverID}, nil
}

func (s *fakeDutyService) GoOffDuty(_ context.Context, driverID string) (ports.GoOffDutyResult, error) {
	return ports.GoOffDutyResult{Status: duty.StatusOffDuty.String(), SessionID: "session-" + driverID}, nil
}

func (s *fakeDutyService) CreditTrip(_ context.Context, driverID string, earnings float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[driverID] += earnings
	return nil
}

// ----- fixture -----

type fixture struct {
	svc      ports.TripService
	tripRepo *memTripRepo
	drafts   *memDraftRepo
	events   *memEventRepo
	pub      *fakePublisher
	dutySvc  *fakeDutyService
	registry *tripstate.Registry
	store    *tripstate.DraftStore
	dutyReg  *dutyreg.Registry
	streams  *broadcast.Broadcaster
}

func newFixture() *fixture {
	f := &fixture{
		tripRepo: newMemTripRepo(),
		drafts:   newMemDraftRepo(),
		events:   &memEventRepo{},
		pub:      &fakePublisher{},
		dutySvc:  newFakeDutyService(),
		registry: tripstate.NewRegistry(),
		store:    tripstate.NewDraftStore(),
		dutyReg:  dutyreg.NewRegistry(4),
		streams:  broadcast.New(16),
	}
	f.svc = NewTripService(
		logger.New("trip-service-test"),
		stubUOW{},
		f.tripRepo, f.drafts, f.events,
		f.dutySvc, f.pub, nil,
		f.registry, f.store, f.dutyReg, f.streams,
		config.Trips{
			DraftTTL:      time.Minute,
			SweepInterval: time.Minute,
			StreamBuffer:  16,
			MatchTimeout:  time.Hour, // keep the timeout out of the tests' way
		},
	)
	return f
}

func (f *fixture) priceDraft(ctx context.Context, passengerID string) ports.DraftResult {
	res, err := f.svc.CreateDraft(ctx, ports.CreateDraftInput{
		PassengerID:          passengerID,
		OriginLatitude:       40.7580,
		OriginLongitude:      -73.9855,
		OriginAddress:        "Times Square",
		DestinationLatitude:  40.6413,
		DestinationLongitude: -73.7781,
		DestinationAddress:   "JFK Airport",
	})
	if err != nil {
		panic(err)
	}
	return res
}
