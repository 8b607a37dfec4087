package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scansnap/scansnap/internal/common"
	"github.com/scansnap/scansnap/internal/entity"
	"github.com/scansnap/scansnap/internal/geometry"
	"github.com/scansnap/scansnap/internal/layout"
)

// ReplaceRegionRequest wraps parameters for a region rescan: the detections
// inside the region are discarded wholesale and replaced with the new ones.
type ReplaceRegionRequest struct {
	ScanID       uuid.UUID
	Region       geometry.BoundingBox // original-image space
	Detections   []layout.Detection
	Text         string // regenerated document text
	DocumentType string
	Confidence   float32
}

type ScanRepository interface {
	CreateScan(ctx context.Context, scan *entity.Scan) error
	GetScan(ctx context.Context, id uuid.UUID) (*entity.Scan, error)
	ListScans(ctx context.Context) ([]*entity.Scan, error)
	DeleteScan(ctx context.Context, id uuid.UUID) error
	UpdateDetectionCorrection(ctx context.Context, scanID, detectionID uuid.UUID, corrected, documentText string) error
	ReplaceRegionDetections(ctx context.Context, req *ReplaceRegionRequest) error
	SaveSummary(ctx context.Context, scanID uuid.UUID, summary string) error
}

type scanRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewScanRepository(db *DB, logger *slog.Logger) ScanRepository {
	return &scanRepository{db: db, logger: logger}
}

func (r *scanRepository) CreateScan(ctx context.Context, scan *entity.Scan) error {
	now := time.Now().UTC()
	scan.CreatedAt, scan.UpdatedAt = now, now

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO scans
			(id, source_path, image_width, image_height, text, corrected_text,
			 document_type, status, confidence, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		scan.ID.String(), scan.SourcePath, scan.ImageWidth, scan.ImageHeight,
		scan.Text, scan.CorrectedText, scan.DocumentType, scan.Status,
		scan.Confidence, scan.CreatedAt, scan.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert scan", "scan_id", scan.ID, "error", err)
		return common.WrapError(err, "insert scan")
	}

	if err := r.insertDetections(ctx, tx, scan.ID, scan.Detections); err != nil {
		r.logger.Error("failed to insert detections", "scan_id", scan.ID, "error", err)
		return err
	}
	return tx.Commit()
}

func (r *scanRepository) insertDetections(ctx context.Context, tx *sql.Tx, scanID uuid.UUID, dets []layout.Detection) error {
	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(
		`INSERT INTO detections (id, scan_id, text, corrected_text, box, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return common.WrapError(err, "prepare detection insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range dets {
		box, err := json.Marshal(d.Box)
		if err != nil {
			return common.WrapError(err, "encode box")
		}
		if _, err := stmt.ExecContext(ctx,
			d.ID.String(), scanID.String(), d.Text, d.CorrectedText, string(box), d.Confidence,
		); err != nil {
			return common.WrapError(err, "insert detection")
		}
	}
	return nil
}

func (r *scanRepository) GetScan(ctx context.Context, id uuid.UUID) (*entity.Scan, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.Rebind(
		`SELECT id, source_path, image_width, image_height, text, corrected_text,
		        document_type, summary, status, confidence, created_at, updated_at
		 FROM scans WHERE id = ?`), id.String())

	scan, err := scanScanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get scan", "scan_id", id, "error", err)
		return nil, err
	}

	dets, err := r.loadDetections(ctx, id)
	if err != nil {
		return nil, err
	}
	scan.Detections = dets
	return scan, nil
}

func (r *scanRepository) loadDetections(ctx context.Context, scanID uuid.UUID) ([]layout.Detection, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(
		`SELECT id, text, corrected_text, box, confidence
		 FROM detections WHERE scan_id = ?`), scanID.String())
	if err != nil {
		return nil, common.WrapError(err, "query detections")
	}
	defer func() { _ = rows.Close() }()

	var dets []layout.Detection
	for rows.Next() {
		var (
			idStr, boxJSON string
			d              layout.Detection
		)
		if err := rows.Scan(&idStr, &d.Text, &d.CorrectedText, &boxJSON, &d.Confidence); err != nil {
			return nil, common.WrapError(err, "scan detection row")
		}
		if d.ID, err = uuid.Parse(idStr); err != nil {
			return nil, common.WrapError(err, "parse detection id")
		}
		if err := json.Unmarshal([]byte(boxJSON), &d.Box); err != nil {
			return nil, common.WrapError(err, "decode box")
		}
		dets = append(dets, d)
	}
	return dets, rows.Err()
}

func (r *scanRepository) ListScans(ctx context.Context) ([]*entity.Scan, error) {
	rows, err := r.db.SQL.QueryContext(ctx,
		`SELECT id, source_path, image_width, image_height, text, corrected_text,
		        document_type, summary, status, confidence, created_at, updated_at
		 FROM scans ORDER BY created_at DESC`)
	if err != nil {
		r.logger.Error("failed to list scans", "error", err)
		return nil, common.WrapError(err, "query scans")
	}
	defer func() { _ = rows.Close() }()

	var scans []*entity.Scan
	for rows.Next() {
		s, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScanRow(row rowScanner) (*entity.Scan, error) {
	var (
		s     entity.Scan
		idStr string
	)
	err := row.Scan(&idStr, &s.SourcePath, &s.ImageWidth, &s.ImageHeight,
		&s.Text, &s.CorrectedText, &s.DocumentType, &s.Summary, &s.Status,
		&s.Confidence, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if s.ID, err = uuid.Parse(idStr); err != nil {
		return nil, common.WrapError(err, "parse scan id")
	}
	return &s, nil
}

func (r *scanRepository) DeleteScan(ctx context.Context, id uuid.UUID) error {
	// detections cascade via the FK
	res, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM scans WHERE id = ?`), id.String())
	if err != nil {
		r.logger.Error("failed to delete scan", "scan_id", id, "error", err)
		return common.WrapError(err, "delete scan")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *scanRepository) UpdateDetectionCorrection(ctx context.Context, scanID, detectionID uuid.UUID, corrected, documentText string) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE detections SET corrected_text = ? WHERE id = ? AND scan_id = ?`),
		corrected, detectionID.String(), scanID.String())
	if err != nil {
		return common.WrapError(err, "update detection")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE scans SET corrected_text = ?, status = 'CORRECTED', updated_at = ? WHERE id = ?`),
		documentText, time.Now().UTC(), scanID.String())
	if err != nil {
		return common.WrapError(err, "update scan text")
	}
	return tx.Commit()
}

func (r *scanRepository) ReplaceRegionDetections(ctx context.Context, req *ReplaceRegionRequest) error {
	existing, err := r.loadDetections(ctx, req.ScanID)
	if err != nil {
		return err
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	// old detections inside the region are discarded, never merged
	for _, d := range existing {
		if !d.Box.Intersects(req.Region) {
			continue
		}
		if _, err := tx.ExecContext(ctx, r.db.Rebind(
			`DELETE FROM detections WHERE id = ?`), d.ID.String()); err != nil {
			return common.WrapError(err, "delete detection")
		}
	}

	if err := r.insertDetections(ctx, tx, req.ScanID, req.Detections); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE scans
		 SET text = ?, corrected_text = '', document_type = ?, confidence = ?, updated_at = ?
		 WHERE id = ?`),
		req.Text, req.DocumentType, req.Confidence, time.Now().UTC(), req.ScanID.String())
	if err != nil {
		return common.WrapError(err, "update scan after rescan")
	}
	return tx.Commit()
}

func (r *scanRepository) SaveSummary(ctx context.Context, scanID uuid.UUID, summary string) error {
	res, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`UPDATE scans SET summary = ?, status = 'SUMMARIZED', updated_at = ? WHERE id = ?`),
		summary, time.Now().UTC(), scanID.String())
	if err != nil {
		r.logger.Error("failed to save summary", "scan_id", scanID, "error", err)
		return common.WrapError(err, "save summary")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
