package service

import (
	"context"

	"drive-hub/internal/domain/duty"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"
)

// GoOnDuty opens a duty session for an eligible driver. A driver who
// already holds an open session gets that session back, so a
// reconnecting duty socket never double-opens.
func (service *dutyService) GoOnDuty(ctx context.Context, driverID string) (ports.GoOnDutyResult, error) {
	var out ports.GoOnDutyResult
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		// ensure the account exists and may drive
		u, err := service.users.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if u == nil {
			return errs.NotFound("user", driverID)
		}
		if !u.CanGoOnDuty() {
			return errs.InvalidRequest("account is not an active driver")
		}

		// reuse an open session on reconnect
		if active, err := service.sessions.GetActiveForDriver(ctx, driverID); err != nil {
			return err
		} else if active != nil {
			out = ports.GoOnDutyResult{
				Status:    duty.StatusOnDuty.String(),
				SessionID: active.ID,
				Message:   "You are already on duty",
			}
			return nil
		}

		sessionID, err := service.sessions.Start(ctx, driverID)
		if err != nil {
			return err
		}

		out = ports.GoOnDutyResult{
			Status:    duty.StatusOnDuty.String(),
			SessionID: sessionID,
			Message:   "You are now on duty and will receive trip offers",
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "duty_go_on_failed", "Failed to put driver on duty", err, map[string]any{
			"driver_id":  driverID,
			"request_id": corrID,
		})
		return ports.GoOnDutyResult{}, err
	}

	service.logger.Info(ctx, "driver_on_duty", "Driver went on duty", map[string]any{
		"driver_id":  driverID,
		"session_id": out.SessionID,
		"request_id": corrID,
	})

	return out, nil
}

// GoOffDuty closes the driver's open session and returns its summary.
func (service *dutyService) GoOffDuty(ctx context.Context, driverID string) (ports.GoOffDutyResult, error) {
	var out ports.GoOffDutyResult
	corrID := generateCorrelationID()

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		active, err := service.sessions.GetActiveForDriver(ctx, driverID)
		if err != nil {
			return err
		}
		if active == nil {
			return errs.NotFound("active duty session for driver", driverID)
		}

		if err := active.End(); err != nil {
			return errs.ConflictCause(err)
		}
		if err := service.sessions.End(ctx, active.ID, *active); err != nil {
			return err
		}

		out = ports.GoOffDutyResult{
			Status:    duty.StatusOffDuty.String(),
			SessionID: active.ID,
			DutySummary: ports.DutySummary{
				DurationHours:  active.EndedAt.Sub(active.StartedAt).Hours(),
				TripsCompleted: active.TotalTrips,
				Earnings:       active.TotalEarnings,
			},
			Message: "You are now off duty",
		}
		return nil
	})
	if err != nil {
		service.logger.Error(ctx, "duty_go_off_failed", "Failed to take driver off duty", err, map[string]any{
			"driver_id":  driverID,
			"request_id": corrID,
		})
		return ports.GoOffDutyResult{}, err
	}

	service.logger.Info(ctx, "driver_off_duty", "Driver went off duty", map[string]any{
		"driver_id":      driverID,
		"session_id":     out.SessionID,
		"duration_hours": out.DutySummary.DurationHours,
		"earnings":       out.DutySummary.Earnings,
		"request_id":     corrID,
	})

	return out, nil
}

// CreditTrip records a finished trip's fare against the driver's open
// session. Without an open session the credit is dropped: the trip
// outlived the duty stretch it was claimed in.
func (service *dutyService) CreditTrip(ctx context.Context, driverID string, earnings float64) error {
	if earnings < 0 {
		return errs.InvalidRequestCause(duty.ErrNegativeEarnings)
	}

	return service.uow.WithinTx(ctx, func(ctx context.Context) error {
		active, err := service.sessions.GetActiveForDriver(ctx, driverID)
		if err != nil {
			return err
		}
		if active == nil {
			service.logger.Info(ctx, "duty_credit_skipped", "No open duty session to credit", map[string]any{
				"driver_id": driverID,
				"earnings":  earnings,
			})
			return nil
		}

		if err := service.sessions.IncrementCounters(ctx, active.ID, 1, earnings); err != nil {
			return err
		}

		service.logger.Info(ctx, "duty_session_credited", "Duty session credited", map[string]any{
			"driver_id":  driverID,
			"session_id": active.ID,
			"earnings":   earnings,
		})
		return nil
	})
}
