package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"drive-hub/internal/general/jwt"
	"drive-hub/internal/ports"
)

// ----- Handler: POST /trip/driver/active -----
// Moves the driver's accepted trip to IN_PROGRESS.

func (handler *TripHTTPHandler) handleDriverStartTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.StartTrip(ctxWithTimeout, strings.TrimSpace(claims.Subject))
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}

// ----- Handler: GET /trip/driver/active -----

func (handler *TripHTTPHandler) handleDriverActiveTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	res, err := handler.svc.FindActiveForDriver(ctx, strings.TrimSpace(claims.Subject))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /trip/driver/active/finish?cancel=true -----

type finishTripRequest struct {
	Reason string `json:"reason"`
}

func (handler *TripHTTPHandler) handleDriverFinishTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	abort := strings.EqualFold(r.URL.Query().Get("cancel"), "true")

	var req finishTripRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.FinishTrip(ctxWithTimeout, ports.FinishTripInput{
		DriverID: strings.TrimSpace(claims.Subject),
		Cancel:   abort,
		Reason:   strings.TrimSpace(req.Reason),
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
