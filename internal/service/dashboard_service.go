// Package service composes the upstream backend, the view-model pipeline
// and the stores into the operations the dashboard API exposes.
package service

import (
	"context"
	"errors"
	"time"

	"expertrait/internal/bookingview"
	"expertrait/internal/domain"
	"expertrait/internal/events"
	"expertrait/internal/metrics"
	"expertrait/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidRole is returned for roles outside the customer/professional set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidFilter is returned when a status or date filter value is unknown.
	ErrInvalidFilter = errors.New("invalid filter value")
)

// View is a fully derived dashboard snapshot: the filtered bookings plus
// the bucket counts for the unfiltered collection.
type View struct {
	Bookings  []models.Booking   `json:"bookings"`
	Counts    bookingview.Counts `json:"counts"`
	Filter    models.FilterState `json:"filter"`
	Anomalies int                `json:"anomalies"`
}

type DashboardService struct {
	source   domain.BookingSource
	states   domain.StateRepository
	presets  domain.PresetStore
	exports  domain.ExportQueue
	eventBus domain.EventPublisher
	loc      *time.Location
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewDashboardService(source domain.BookingSource, states domain.StateRepository, presets domain.PresetStore, exports domain.ExportQueue, eventBus domain.EventPublisher, loc *time.Location, logger *zerolog.Logger) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		source:   source,
		states:   states,
		presets:  presets,
		exports:  exports,
		eventBus: eventBus,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock overrides the time source. Tests pin "now" to exercise the
// today/upcoming/past buckets deterministically.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

func validateFilter(state models.FilterState) error {
	state = state.Normalized()
	if !models.ValidStatusFilter(state.StatusFilter) {
		return ErrInvalidFilter
	}
	if !models.ValidDateFilter(state.DateFilter) {
		return ErrInvalidFilter
	}
	return nil
}

// LoadView fetches the viewer's collection from the backend, normalizes
// it and applies the filter state. Counts are computed over the whole
// normalized collection, not the filtered subset.
func (s *DashboardService) LoadView(ctx context.Context, role models.Role, viewerID string, state models.FilterState) (*View, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := validateFilter(state); err != nil {
		return nil, err
	}

	raws, err := s.source.FetchBookings(ctx, role, viewerID)
	if err != nil {
		return nil, err
	}

	bookings, anomalies := bookingview.NormalizeAll(raws, s.logger)
	for _, a := range anomalies {
		metrics.IncAnomaly(string(a.Kind))
	}

	now := s.now()
	view := &View{
		Bookings:  bookingview.Filter(bookings, role, state, now, s.loc),
		Counts:    bookingview.Tally(bookings, now, s.loc),
		Filter:    state.Normalized(),
		Anomalies: len(anomalies),
	}
	return view, nil
}

// ExportCSV renders the filtered view as a CSV document and records an
// audit row. It returns the suggested filename and the document body.
func (s *DashboardService) ExportCSV(ctx context.Context, role models.Role, viewerID string, state models.FilterState) (string, string, error) {
	view, err := s.LoadView(ctx, role, viewerID, state)
	if err != nil {
		return "", "", err
	}

	now := s.now()
	body := bookingview.ToCSV(view.Bookings, s.loc)
	filename := bookingview.ExportFilename(role, models.FormatCSV, now, s.loc)

	audit := &models.ExportAudit{
		Role:     role,
		ViewerID: viewerID,
		Format:   models.FormatCSV,
		RowCount: len(view.Bookings),
	}
	if err := s.presets.RecordExport(ctx, audit); err != nil {
		s.logger.Error().Err(err).Str("viewer_id", viewerID).Msg("record csv export audit")
	}
	metrics.IncExport(models.FormatCSV)

	return filename, body, nil
}

// EnqueueXLSX snapshots the filtered view and queues it for asynchronous
// workbook generation. It returns the job ID.
func (s *DashboardService) EnqueueXLSX(ctx context.Context, role models.Role, viewerID string, state models.FilterState) (string, error) {
	view, err := s.LoadView(ctx, role, viewerID, state)
	if err != nil {
		return "", err
	}

	job := domain.ExportJob{
		ID:       uuid.NewString(),
		Role:     role,
		ViewerID: viewerID,
		Format:   models.FormatXLSX,
		Bookings: view.Bookings,
		Now:      s.now(),
	}
	if err := s.exports.Enqueue(ctx, job); err != nil {
		return "", err
	}

	s.logger.Info().Str("job_id", job.ID).Str("viewer_id", viewerID).Int("rows", len(job.Bookings)).Msg("xlsx export queued")
	return job.ID, nil
}

// Wallet proxies the handler wallet summary from the backend.
func (s *DashboardService) Wallet(ctx context.Context, handlerID string) (models.Wallet, error) {
	return s.source.FetchWallet(ctx, handlerID)
}

// AcceptBooking proxies the transition to the backend and publishes an
// event on success. Callers re-fetch the view afterwards.
func (s *DashboardService) AcceptBooking(ctx context.Context, role models.Role, viewerID, bookingID string) error {
	if err := s.source.AcceptBooking(ctx, bookingID); err != nil {
		return err
	}
	s.publishBookingEvent(events.EventBookingAccepted, bookingID, role, viewerID, string(models.StatusConfirmed))
	return nil
}

// CompleteBooking proxies the transition to the backend and publishes an
// event on success.
func (s *DashboardService) CompleteBooking(ctx context.Context, role models.Role, viewerID, bookingID string) error {
	if err := s.source.CompleteBooking(ctx, bookingID); err != nil {
		return err
	}
	s.publishBookingEvent(events.EventBookingCompleted, bookingID, role, viewerID, string(models.StatusCompleted))
	return nil
}

// GetFilterState returns the stored state for the viewer, or the default
// state when none is stored or the stored copy expired.
func (s *DashboardService) GetFilterState(ctx context.Context, role models.Role, viewerID string) (models.FilterState, error) {
	stored, err := s.states.GetState(ctx, role, viewerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("viewer_id", viewerID).Msg("get filter state")
		return models.DefaultFilterState(), nil
	}
	if stored == nil {
		return models.DefaultFilterState(), nil
	}
	return stored.Filter.Normalized(), nil
}

// SetFilterState validates and stores the viewer's filter state.
func (s *DashboardService) SetFilterState(ctx context.Context, role models.Role, viewerID string, state models.FilterState) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := validateFilter(state); err != nil {
		return err
	}
	return s.states.SetState(ctx, &models.ViewerState{
		Role:      role,
		ViewerID:  viewerID,
		Filter:    state.Normalized(),
		UpdatedAt: s.now(),
	})
}

// ClearFilterState drops the stored state, returning the viewer to the
// default view on their next load.
func (s *DashboardService) ClearFilterState(ctx context.Context, role models.Role, viewerID string) error {
	return s.states.ClearState(ctx, role, viewerID)
}

// CreatePreset validates and stores a named filter preset.
func (s *DashboardService) CreatePreset(ctx context.Context, preset *models.FilterPreset) error {
	if !preset.Role.Valid() {
		return ErrInvalidRole
	}
	if err := validateFilter(preset.Filter); err != nil {
		return err
	}
	return s.presets.CreatePreset(ctx, preset)
}

// ListPresets returns the viewer's saved presets, newest first.
func (s *DashboardService) ListPresets(ctx context.Context, role models.Role, viewerID string) ([]*models.FilterPreset, error) {
	return s.presets.ListPresets(ctx, role, viewerID)
}

// DeletePreset removes a preset owned by the viewer.
func (s *DashboardService) DeletePreset(ctx context.Context, id string, role models.Role, viewerID string) error {
	return s.presets.DeletePreset(ctx, id, role, viewerID)
}

// ListExports returns recent export audit rows for the viewer.
func (s *DashboardService) ListExports(ctx context.Context, role models.Role, viewerID string, limit int) ([]*models.ExportAudit, error) {
	return s.presets.ListExports(ctx, role, viewerID, limit)
}

func (s *DashboardService) publishBookingEvent(eventType, bookingID string, role models.Role, viewerID, status string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: bookingID,
		Role:      role,
		ViewerID:  viewerID,
		Status:    status,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", bookingID).Msg("publish event error")
	}
}
