package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expertrait/internal/models"

	"github.com/google/uuid"
)

// ErrPresetNotFound is returned when a preset does not exist or belongs to
// another viewer.
var ErrPresetNotFound = errors.New("preset not found")

// CreatePreset stores a named filter preset. A missing id is assigned.
func (d *DB) CreatePreset(ctx context.Context, preset *models.FilterPreset) error {
	if preset.ID == "" {
		preset.ID = uuid.NewString()
	}
	if preset.CreatedAt.IsZero() {
		preset.CreatedAt = time.Now().UTC()
	}
	filter := preset.Filter.Normalized()

	_, err := d.db.ExecContext(ctx, `
        INSERT INTO filter_presets (id, role, viewer_id, name, search_term, status_filter, date_filter, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		preset.ID, preset.Role, preset.ViewerID, preset.Name,
		filter.SearchTerm, filter.StatusFilter, filter.DateFilter, preset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create preset: %w", err)
	}
	return nil
}

// ListPresets returns a viewer's presets, newest first.
func (d *DB) ListPresets(ctx context.Context, role models.Role, viewerID string) ([]*models.FilterPreset, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, role, viewer_id, name, search_term, status_filter, date_filter, created_at
        FROM filter_presets
        WHERE role = ? AND viewer_id = ?
        ORDER BY created_at DESC, id`,
		role, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var presets []*models.FilterPreset
	for rows.Next() {
		var p models.FilterPreset
		if err := rows.Scan(&p.ID, &p.Role, &p.ViewerID, &p.Name,
			&p.Filter.SearchTerm, &p.Filter.StatusFilter, &p.Filter.DateFilter, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		presets = append(presets, &p)
	}
	return presets, rows.Err()
}

// DeletePreset removes a preset; the viewer scoping prevents deleting
// someone else's preset by id.
func (d *DB) DeletePreset(ctx context.Context, id string, role models.Role, viewerID string) error {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM filter_presets WHERE id = ? AND role = ? AND viewer_id = ?`,
		id, role, viewerID,
	)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPresetNotFound
	}
	return nil
}

// RecordExport writes an audit row for a completed export.
func (d *DB) RecordExport(ctx context.Context, audit *models.ExportAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
        INSERT INTO export_audit (id, role, viewer_id, format, row_count, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		audit.ID, audit.Role, audit.ViewerID, audit.Format, audit.RowCount, audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

// ListExports returns a viewer's most recent export audit rows.
func (d *DB) ListExports(ctx context.Context, role models.Role, viewerID string, limit int) ([]*models.ExportAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, role, viewer_id, format, row_count, created_at
        FROM export_audit
        WHERE role = ? AND viewer_id = ?
        ORDER BY created_at DESC, id
        LIMIT ?`,
		role, viewerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var audits []*models.ExportAudit
	for rows.Next() {
		var a models.ExportAudit
		if err := rows.Scan(&a.ID, &a.Role, &a.ViewerID, &a.Format, &a.RowCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export audit: %w", err)
		}
		audits = append(audits, &a)
	}
	return audits, rows.Err()
}
