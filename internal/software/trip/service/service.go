package service

import (
	"drive-hub/internal/broadcast"
	"drive-hub/internal/duty"
	"drive-hub/internal/general/config"
	"drive-hub/internal/general/logger"
	"drive-hub/internal/general/rabbitmq"
	"drive-hub/internal/ports"
	"drive-hub/internal/tripstate"
)

// tripService encapsulates the trip lifecycle logic and dependencies.
// Live trip state lives in the tripstate registry; Postgres is the
// durable write-through record behind it.
type tripService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	tripRepo  ports.TripRepository
	draftRepo ports.TripDraftRepository
	eventRepo ports.TripEventRepository
	dutySvc   ports.DutyService
	pub       ports.MessagePublisher
	rabbitmq  *rabbitmq.Client
	registry  *tripstate.Registry
	drafts    *tripstate.DraftStore
	dutyReg   *duty.Registry
	streams   *broadcast.Broadcaster
	cfg       config.Trips
}

// NewTripService creates a new instance of the TripService with the provided dependencies.
func NewTripService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	tripRepo ports.TripRepository,
	draftRepo ports.TripDraftRepository,
	eventRepo ports.TripEventRepository,
	dutySvc ports.DutyService,
	pub ports.MessagePublisher,
	rabbitmq *rabbitmq.Client,
	registry *tripstate.Registry,
	drafts *tripstate.DraftStore,
	dutyReg *duty.Registry,
	streams *broadcast.Broadcaster,
	cfg config.Trips,
) ports.TripService {
	return &tripService{
		logger:    logger,
		uow:       uow,
		tripRepo:  tripRepo,
		draftRepo: draftRepo,
		eventRepo: eventRepo,
		dutySvc:   dutySvc,
		pub:       pub,
		rabbitmq:  rabbitmq,
		registry:  registry,
		drafts:    drafts,
		dutyReg:   dutyReg,
		streams:   streams,
		cfg:       cfg,
	}
}
