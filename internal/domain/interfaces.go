package domain

import (
	"context"
	"time"

	"expertrait/internal/models"
)

// BookingSource is the upstream Expertrait backend: the system of record
// for bookings, wallets and status transitions. Collections are always
// re-fetched in full after a transition; nothing is patched locally.
type BookingSource interface {
	FetchBookings(ctx context.Context, role models.Role, viewerID string) ([]map[string]any, error)
	FetchWallet(ctx context.Context, handlerID string) (models.Wallet, error)
	AcceptBooking(ctx context.Context, bookingID string) error
	CompleteBooking(ctx context.Context, bookingID string) error
}

// StateRepository holds per-viewer dashboard filter state with a TTL.
type StateRepository interface {
	GetState(ctx context.Context, role models.Role, viewerID string) (*models.ViewerState, error)
	SetState(ctx context.Context, state *models.ViewerState) error
	ClearState(ctx context.Context, role models.Role, viewerID string) error
}

// PresetStore persists named filter presets and export audit rows.
type PresetStore interface {
	CreatePreset(ctx context.Context, preset *models.FilterPreset) error
	ListPresets(ctx context.Context, role models.Role, viewerID string) ([]*models.FilterPreset, error)
	DeletePreset(ctx context.Context, id string, role models.Role, viewerID string) error
	RecordExport(ctx context.Context, audit *models.ExportAudit) error
	ListExports(ctx context.Context, role models.Role, viewerID string, limit int) ([]*models.ExportAudit, error)
}

// ExportWriter renders a filtered view to a file on disk.
type ExportWriter interface {
	WriteBookings(role models.Role, bookings []models.Booking, now time.Time) (string, error)
}

// ExportQueue accepts asynchronous export jobs.
type ExportQueue interface {
	Enqueue(ctx context.Context, job ExportJob) error
}

// ExportJob is a snapshot of a filtered view queued for file export.
type ExportJob struct {
	ID       string
	Role     models.Role
	ViewerID string
	Format   string
	Bookings []models.Booking
	Now      time.Time
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
