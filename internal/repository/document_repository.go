package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ideation-portal-api/internal/models"
)

// DocumentRepository handles document metadata persistence.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores metadata for an uploaded document. file_path carries a
// unique constraint; a collision surfaces as a unique violation.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.VirusScanStatus == "" {
		doc.VirusScanStatus = models.ScanStatusPending
	}
	const query = `INSERT INTO documents
	(id, idea_id, file_name, file_path, file_size, file_type, uploaded_by, uploaded_at, virus_scan_status, virus_scan_result)
	VALUES (:id, :idea_id, :file_name, :file_path, :file_size, :file_type, :uploaded_by, :uploaded_at, :virus_scan_status, :virus_scan_result)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID retrieves one document row.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, idea_id, file_name, file_path, file_size, file_type, uploaded_by,
	uploaded_at, virus_scan_status, virus_scan_result FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByIdea returns a single idea's documents, newest first.
func (r *DocumentRepository) ListByIdea(ctx context.Context, ideaID string) ([]models.Document, error) {
	const query = `SELECT id, idea_id, file_name, file_path, file_size, file_type, uploaded_by,
	uploaded_at, virus_scan_status, virus_scan_result FROM documents
	WHERE idea_id = $1 ORDER BY uploaded_at DESC`
	var records []models.Document
	if err := r.db.SelectContext(ctx, &records, query, ideaID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return records, nil
}

// SetScanVerdict persists a terminal scan outcome. Verdict writes are
// last-write-wins; a racing duplicate scan simply re-confirms.
func (r *DocumentRepository) SetScanVerdict(ctx context.Context, id string, status models.VirusScanStatus, result string) error {
	const query = `UPDATE documents SET virus_scan_status = $2, virus_scan_result = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, result)
	if err != nil {
		return fmt.Errorf("set scan verdict: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check verdict rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUploadedBefore returns documents older than the cutoff for the
// retention sweep, oldest first.
func (r *DocumentRepository) ListUploadedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, idea_id, file_name, file_path, file_size, file_type, uploaded_by,
	uploaded_at, virus_scan_status, virus_scan_result FROM documents
	WHERE uploaded_at < $1 ORDER BY uploaded_at ASC LIMIT $2`
	var records []models.Document
	if err := r.db.SelectContext(ctx, &records, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired documents: %w", err)
	}
	return records, nil
}

// Delete removes a document metadata row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
