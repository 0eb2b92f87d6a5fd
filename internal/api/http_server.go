// Package api exposes the dashboard view-model over HTTP for the web and
// mobile clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expertrait/internal/backend"
	"expertrait/internal/config"
	"expertrait/internal/database"
	"expertrait/internal/models"
	"expertrait/internal/service"
	"expertrait/internal/worker"

	"github.com/rs/zerolog"
)

// Service is the slice of the dashboard service the HTTP layer uses.
type Service interface {
	LoadView(ctx context.Context, role models.Role, viewerID string, state models.FilterState) (*service.View, error)
	ExportCSV(ctx context.Context, role models.Role, viewerID string, state models.FilterState) (string, string, error)
	EnqueueXLSX(ctx context.Context, role models.Role, viewerID string, state models.FilterState) (string, error)
	Wallet(ctx context.Context, handlerID string) (models.Wallet, error)
	AcceptBooking(ctx context.Context, role models.Role, viewerID, bookingID string) error
	CompleteBooking(ctx context.Context, role models.Role, viewerID, bookingID string) error
	GetFilterState(ctx context.Context, role models.Role, viewerID string) (models.FilterState, error)
	SetFilterState(ctx context.Context, role models.Role, viewerID string, state models.FilterState) error
	ClearFilterState(ctx context.Context, role models.Role, viewerID string) error
	CreatePreset(ctx context.Context, preset *models.FilterPreset) error
	ListPresets(ctx context.Context, role models.Role, viewerID string) ([]*models.FilterPreset, error)
	DeletePreset(ctx context.Context, id string, role models.Role, viewerID string) error
	ListExports(ctx context.Context, role models.Role, viewerID string, limit int) ([]*models.ExportAudit, error)
}

// HTTPServer serves the dashboard API.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Service
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Service, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, svc: svc, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	handler := loggingMiddleware(logger)(srv.auth.Wrap(srv.routes()))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/v1/dashboard/{role}/{viewerID}/bookings", s.handleBookings)
	mux.HandleFunc("GET /api/v1/dashboard/{role}/{viewerID}/export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /api/v1/dashboard/{role}/{viewerID}/export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /api/v1/dashboard/{role}/{viewerID}/exports", s.handleListExports)

	mux.HandleFunc("POST /api/v1/dashboard/{role}/{viewerID}/bookings/{bookingID}/accept", s.handleAccept)
	mux.HandleFunc("POST /api/v1/dashboard/{role}/{viewerID}/bookings/{bookingID}/complete", s.handleComplete)

	mux.HandleFunc("GET /api/v1/dashboard/{role}/{viewerID}/filters", s.handleGetFilters)
	mux.HandleFunc("PUT /api/v1/dashboard/{role}/{viewerID}/filters", s.handlePutFilters)
	mux.HandleFunc("DELETE /api/v1/dashboard/{role}/{viewerID}/filters", s.handleDeleteFilters)

	mux.HandleFunc("GET /api/v1/dashboard/{role}/{viewerID}/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/v1/dashboard/{role}/{viewerID}/presets", s.handleCreatePreset)
	mux.HandleFunc("DELETE /api/v1/dashboard/{role}/{viewerID}/presets/{presetID}", s.handleDeletePreset)

	mux.HandleFunc("GET /api/v1/handler/{viewerID}/wallet", s.handleWallet)

	return mux
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the full middleware-wrapped handler for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathRole(r *http.Request) (models.Role, error) {
	role := models.Role(r.PathValue("role"))
	if !role.Valid() {
		return "", service.ErrInvalidRole
	}
	return role, nil
}

// filterFromRequest builds the filter from query parameters when any are
// present, otherwise falls back to the viewer's stored state.
func (s *HTTPServer) filterFromRequest(r *http.Request, role models.Role, viewerID string) (models.FilterState, error) {
	q := r.URL.Query()
	if !q.Has("search") && !q.Has("status") && !q.Has("date") {
		return s.svc.GetFilterState(r.Context(), role, viewerID)
	}

	state := models.FilterState{
		SearchTerm:   q.Get("search"),
		StatusFilter: q.Get("status"),
		DateFilter:   q.Get("date"),
	}.Normalized()

	if !models.ValidStatusFilter(state.StatusFilter) || !models.ValidDateFilter(state.DateFilter) {
		return models.FilterState{}, service.ErrInvalidFilter
	}
	return state, nil
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	viewerID := r.PathValue("viewerID")

	state, err := s.filterFromRequest(r, role, viewerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	view, err := s.svc.LoadView(r.Context(), role, viewerID, state)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	viewerID := r.PathValue("viewerID")

	state, err := s.filterFromRequest(r, role, viewerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	filename, body, err := s.svc.ExportCSV(r.Context(), role, viewerID, state)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *HTTPServer) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	viewerID := r.PathValue("viewerID")

	state, err := s.filterFromRequest(r, role, viewerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	jobID, err := s.svc.EnqueueXLSX(r.Context(), role, viewerID, state)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *HTTPServer) handleListExports(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	viewerID := r.PathValue("viewerID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	audits, err := s.svc.ListExports(r.Context(), role, viewerID, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": audits})
}

func (s *HTTPServer) handleAccept(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.svc.AcceptBooking)
}

func (s *HTTPServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.svc.CompleteBooking)
}

func (s *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.Role, string, string) error) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	viewerID := r.PathValue("viewerID")
	bookingID := r.PathValue("bookingID")
	if strings.TrimSpace(bookingID) == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if err := fn(r.Context(), role, viewerID, bookingID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	state, err := s.svc.GetFilterState(r.Context(), role, r.PathValue("viewerID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	var state models.FilterState
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.svc.SetFilterState(r.Context(), role, r.PathValue("viewerID"), state); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Normalized())
}

func (s *HTTPServer) handleDeleteFilters(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	if err := s.svc.ClearFilterState(r.Context(), role, r.PathValue("viewerID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListPresets(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	presets, err := s.svc.ListPresets(r.Context(), role, r.PathValue("viewerID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (s *HTTPServer) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	var body struct {
		Name   string             `json:"name"`
		Filter models.FilterState `json:"filter"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	preset := &models.FilterPreset{
		Role:     role,
		ViewerID: r.PathValue("viewerID"),
		Name:     strings.TrimSpace(body.Name),
		Filter:   body.Filter,
	}
	if err := s.svc.CreatePreset(r.Context(), preset); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *HTTPServer) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	role, err := pathRole(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	presetID, err := url.PathUnescape(r.PathValue("presetID"))
	if err != nil || strings.TrimSpace(presetID) == "" {
		writeError(w, http.StatusBadRequest, "preset id is required")
		return
	}

	if err := s.svc.DeletePreset(r.Context(), presetID, role, r.PathValue("viewerID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.svc.Wallet(r.Context(), r.PathValue("viewerID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"balance":        wallet.Balance.StringFixed(2),
		"total_earnings": wallet.TotalEarnings.StringFixed(2),
	})
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, database.ErrPresetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, worker.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, backend.ErrUpstream):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
