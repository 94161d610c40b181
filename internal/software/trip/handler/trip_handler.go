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

// ----- Handler: POST /trip/start/{draft_id}?sendPackage=true -----

func (handler *TripHTTPHandler) handleStartTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	draftID := strings.TrimSpace(r.PathValue("draft_id"))
	if draftID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "draft_id is required", nil)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	sendPackage := strings.EqualFold(r.URL.Query().Get("sendPackage"), "true")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CreateTrip(ctxWithTimeout, ports.CreateTripInput{
		DraftID:     draftID,
		PassengerID: strings.TrimSpace(claims.Subject),
		SendPackage: sendPackage,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}
	ctxWithTimeout = handler.logger.WithTripID(ctxWithTimeout, res.TripID)

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: GET /trip/active -----

func (handler *TripHTTPHandler) handleActiveTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	res, err := handler.svc.FindActiveForPassenger(ctx, strings.TrimSpace(claims.Subject))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /trip/active/cancel -----

type cancelTripRequest struct {
	Reason string `json:"reason"`
}

func (handler *TripHTTPHandler) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	// the body is optional; an empty reason gets a default downstream
	var req cancelTripRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CancelTrip(ctxWithTimeout, strings.TrimSpace(claims.Subject), strings.TrimSpace(req.Reason))
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, res)
}
