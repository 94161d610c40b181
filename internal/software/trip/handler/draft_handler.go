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

// --- Request DTO (HTTP boundary) ---

type createDraftRequest struct {
	OriginLatitude       float64 `json:"origin_latitude"`
	OriginLongitude      float64 `json:"origin_longitude"`
	OriginAddress        string  `json:"origin_address"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	DestinationAddress   string  `json:"destination_address"`
}

// ----- Handler: POST /trip/draft -----

func (handler *TripHTTPHandler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	var req createDraftRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	claims := jwt.RequireClaims(r)
	if claims == nil {
		handler.httpError(ctx, w, http.StatusUnauthorized, "missing auth claims", errors.New("no claims"))
		return
	}

	in := ports.CreateDraftInput{
		PassengerID:          strings.TrimSpace(claims.Subject),
		OriginLatitude:       req.OriginLatitude,
		OriginLongitude:      req.OriginLongitude,
		OriginAddress:        strings.TrimSpace(req.OriginAddress),
		DestinationLatitude:  req.DestinationLatitude,
		DestinationLongitude: req.DestinationLongitude,
		DestinationAddress:   strings.TrimSpace(req.DestinationAddress),
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := handler.svc.CreateDraft(ctxWithTimeout, in)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, res)
}

// ----- Handler: GET /trip/draft/{draft_id} -----

func (handler *TripHTTPHandler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
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

	res, err := handler.svc.FindDraft(ctx, draftID, strings.TrimSpace(claims.Subject))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, res)
}
