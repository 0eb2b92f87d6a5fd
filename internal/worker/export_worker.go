// Package worker runs XLSX export jobs off the request path. CSV downloads
// stay synchronous; workbook generation goes through this queue so a slow
// disk never blocks a dashboard response.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"expertrait/internal/domain"
	"expertrait/internal/events"
	"expertrait/internal/metrics"
	"expertrait/internal/models"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the bounded job queue cannot accept more work.
var ErrQueueFull = errors.New("export queue is full")

type ExportWorker struct {
	writer      domain.ExportWriter
	store       domain.PresetStore
	bus         domain.EventPublisher
	retryPolicy RetryPolicy
	queue       chan domain.ExportJob
	logger      *zerolog.Logger

	wg      sync.WaitGroup
	started sync.Once
}

// NewExportWorker builds a worker with sane retry defaults.
func NewExportWorker(writer domain.ExportWriter, store domain.PresetStore, bus domain.EventPublisher, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		writer:      writer,
		store:       store,
		bus:         bus,
		retryPolicy: retry,
		queue:       make(chan domain.ExportJob, models.ExportQueueSize),
		logger:      logger,
	}
}

// Enqueue accepts a job without blocking; a full queue is the caller's
// signal to tell the user to retry later.
func (w *ExportWorker) Enqueue(ctx context.Context, job domain.ExportJob) error {
	select {
	case w.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the processing loop; it drains until ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.started.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.logger.Info().Msg("export worker started")
			defer w.logger.Info().Msg("export worker stopped")

			for {
				select {
				case <-ctx.Done():
					return
				case job := <-w.queue:
					w.process(ctx, job)
				}
			}
		}()
	})
}

// Wait blocks until the processing loop has exited.
func (w *ExportWorker) Wait() {
	w.wg.Wait()
}

func (w *ExportWorker) process(ctx context.Context, job domain.ExportJob) {
	var filePath string
	var err error

	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		filePath, err = w.writer.WriteBookings(job.Role, job.Bookings, job.Now)
		if err == nil {
			break
		}
		w.logger.Warn().Err(err).Str("job_id", job.ID).Int("attempt", attempt).Msg("export attempt failed")

		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}

	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("export job failed")
		w.publish(events.EventExportFailed, events.ExportEventPayload{
			JobID:    job.ID,
			Role:     job.Role,
			ViewerID: job.ViewerID,
			Format:   job.Format,
			RowCount: len(job.Bookings),
			Error:    err.Error(),
		})
		return
	}

	audit := &models.ExportAudit{
		Role:     job.Role,
		ViewerID: job.ViewerID,
		Format:   job.Format,
		RowCount: len(job.Bookings),
	}
	if auditErr := w.store.RecordExport(ctx, audit); auditErr != nil {
		w.logger.Error().Err(auditErr).Str("job_id", job.ID).Msg("record export audit")
	}

	metrics.IncExport(job.Format)
	w.publish(events.EventExportCompleted, events.ExportEventPayload{
		JobID:    job.ID,
		Role:     job.Role,
		ViewerID: job.ViewerID,
		Format:   job.Format,
		RowCount: len(job.Bookings),
		FilePath: filePath,
	})
}

func (w *ExportWorker) publish(eventType string, payload events.ExportEventPayload) {
	if w.bus == nil {
		return
	}
	if err := w.bus.PublishJSON(eventType, payload); err != nil {
		w.logger.Error().Err(err).Str("event_type", eventType).Msg("publish export event")
	}
}
