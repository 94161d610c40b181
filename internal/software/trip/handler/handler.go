package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"drive-hub/internal/domain/user"
	"drive-hub/internal/general/jwt"
	"drive-hub/internal/general/logger"
	"drive-hub/internal/general/websocket"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"
)

// TripHTTPHandler adapts HTTP requests to the TripService.
type TripHTTPHandler struct {
	svc       ports.TripService
	logger    *logger.Logger
	auth      *jwt.Manager
	websocket *websocket.WebSocket
}

// NewTripHTTPHandler wires an HTTP handler around the TripService.
func NewTripHTTPHandler(
	svc ports.TripService,
	logger *logger.Logger,
	auth *jwt.Manager,
	ws *websocket.WebSocket,
) *TripHTTPHandler {
	return &TripHTTPHandler{svc: svc, logger: logger, auth: auth, websocket: ws}
}

// RegisterRoutes mounts trip endpoints on the provided mux.
func (handler *TripHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	// passenger surface
	mux.HandleFunc("POST /trip/draft",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleCreateDraft),
	)
	mux.HandleFunc("GET /trip/draft/{draft_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleGetDraft),
	)
	mux.HandleFunc("POST /trip/start/{draft_id}",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleStartTrip),
	)
	mux.HandleFunc("GET /trip/active",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleActiveTrip),
	)
	mux.HandleFunc("POST /trip/active/cancel",
		jwt.AuthMiddlewareFunc(handler.auth, user.RolePassenger)(handler.handleCancelTrip),
	)

	// driver surface
	mux.HandleFunc("POST /trip/driver/active",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleDriverStartTrip),
	)
	mux.HandleFunc("GET /trip/driver/active",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleDriverActiveTrip),
	)
	mux.HandleFunc("POST /trip/driver/active/finish",
		jwt.AuthMiddlewareFunc(handler.auth, user.RoleDriver)(handler.handleDriverFinishTrip),
	)

	// streams authenticate on the first frame, no middleware here
	mux.HandleFunc("GET /ws/trip/status", handler.websocket.StreamTripStatus)
	mux.HandleFunc("GET /ws/trip/location", handler.websocket.StreamTripLocation)
	mux.HandleFunc("GET /ws/driver/duty", handler.websocket.StreamDuty)

	mux.HandleFunc("GET /trip/health", handler.handleHealth)
	mux.HandleFunc("POST /tokens", handler.handleCreateToken)
}

func (handler *TripHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "trip-service",
		"timestamp": time.Now().UTC(),
	})
}

// ----- token endpoint (development convenience) -----

type TokenRequest struct {
	UserID string    `json:"user_id"`
	Role   user.Role `json:"role"`
}

// TokenResponse represents the response for token generation
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      user.Role `json:"role"`
}

func (handler *TripHTTPHandler) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	tokenString, claims, err := handler.auth.IssueUserToken(req.UserID, req.Role)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	response := TokenResponse{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    req.UserID,
		Role:      req.Role,
	}

	handler.logger.Info(ctx, "token_generated", "JWT token generated successfully",
		map[string]any{"user_id": req.UserID, "role": req.Role.String()})

	handler.jsonResponse(ctx, w, http.StatusCreated, response)
}

// ----- shared plumbing -----

func (handler *TripHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *TripHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError maps the service error taxonomy onto HTTP statuses.
func (handler *TripHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errs.IsInvalidRequest(err):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errs.IsNotFound(err):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errs.IsConflict(err):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "internal error", err)
	}
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *TripHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
