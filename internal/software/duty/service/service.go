package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"drive-hub/internal/general/logger"
	"drive-hub/internal/ports"
)

// dutyService encapsulates driver availability sessions and dependencies.
type dutyService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	users    ports.UserRepository
	sessions ports.DutySessionRepository
}

// NewDutyService creates a new instance of the DutyService with the provided dependencies.
func NewDutyService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	users ports.UserRepository,
	sessions ports.DutySessionRepository,
) ports.DutyService {
	return &dutyService{
		logger:   logger,
		uow:      uow,
		users:    users,
		sessions: sessions,
	}
}

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}
