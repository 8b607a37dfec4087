package repository

import (
	"context"
	"log/slog"

	"github.com/scansnap/scansnap/internal/common"
)

// schema statements are kept to the portable subset shared by sqlite and
// postgres. Detection boxes are stored as a JSON text blob so box fields
// round-trip through a self-describing text encoding.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS scans (
		id             TEXT PRIMARY KEY,
		source_path    TEXT NOT NULL,
		image_width    REAL NOT NULL,
		image_height   REAL NOT NULL,
		text           TEXT NOT NULL DEFAULT '',
		corrected_text TEXT NOT NULL DEFAULT '',
		document_type  TEXT NOT NULL DEFAULT 'document',
		summary        TEXT,
		status         TEXT NOT NULL,
		confidence     REAL NOT NULL DEFAULT 0,
		created_at     TIMESTAMP NOT NULL,
		updated_at     TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS detections (
		id             TEXT PRIMARY KEY,
		scan_id        TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		text           TEXT NOT NULL,
		corrected_text TEXT NOT NULL DEFAULT '',
		box            TEXT NOT NULL,
		confidence     REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_detections_scan ON detections(scan_id)`,
}

// Migrate applies the schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	for _, stmt := range schema {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			logger.Error("migration failed", "error", err)
			return common.WrapError(err, "apply schema")
		}
	}
	logger.Debug("schema up to date")
	return nil
}
