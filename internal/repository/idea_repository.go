package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
)

// IsUniqueViolation reports whether the error is a postgres unique
// constraint violation (the atomic create-if-absent signal).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IdeaRepository handles idea persistence and the idea status machine's
// atomic transitions.
type IdeaRepository struct {
	db *sqlx.DB
}

// NewIdeaRepository constructs the repository.
func NewIdeaRepository(db *sqlx.DB) *IdeaRepository {
	return &IdeaRepository{db: db}
}

// CreateWithSubmitter inserts the idea and its submitter contributor in
// one transaction: either both rows exist afterwards or neither does.
// A duplicate (title, campaign) pair surfaces as a unique violation.
func (r *IdeaRepository) CreateWithSubmitter(ctx context.Context, idea *models.Idea) (*models.Contributor, error) {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	if idea.Status == "" {
		idea.Status = models.IdeaStatusDraft
	}
	contributor := &models.Contributor{
		ID:      uuid.NewString(),
		IdeaID:  idea.ID,
		UserID:  idea.SubmitterID,
		Role:    models.RoleSubmitter,
		AddedAt: now,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin idea create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const ideaQuery = `INSERT INTO ideas
	(id, title, description, expected_impact, submitter_id, campaign_id, status, created_at, updated_at)
	VALUES (:id, :title, :description, :expected_impact, :submitter_id, :campaign_id, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, ideaQuery, idea); err != nil {
		return nil, err
	}

	const contributorQuery = `INSERT INTO contributors (id, idea_id, user_id, role, added_at)
	VALUES (:id, :idea_id, :user_id, :role, :added_at)`
	if _, err := tx.NamedExecContext(ctx, contributorQuery, contributor); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit idea create: %w", err)
	}
	return contributor, nil
}

// GetByID retrieves one idea row.
func (r *IdeaRepository) GetByID(ctx context.Context, id string) (*models.Idea, error) {
	const query = `SELECT id, title, description, expected_impact, submitter_id, campaign_id, status,
	created_at, updated_at, submitted_at, recognized_at FROM ideas WHERE id = $1`
	var idea models.Idea
	if err := r.db.GetContext(ctx, &idea, query, id); err != nil {
		return nil, err
	}
	return &idea, nil
}

// Update persists the draft-mutable fields.
func (r *IdeaRepository) Update(ctx context.Context, idea *models.Idea) error {
	idea.UpdatedAt = time.Now().UTC()
	const query = `UPDATE ideas SET title = :title, description = :description,
	expected_impact = :expected_impact, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, idea); err != nil {
		return fmt.Errorf("update idea: %w", err)
	}
	return nil
}

// SubmitFromDraft transitions DRAFT to SUBMITTED as one atomic
// read-modify-write. sql.ErrNoRows signals the idea was not in DRAFT.
func (r *IdeaRepository) SubmitFromDraft(ctx context.Context, id string, submittedAt time.Time) error {
	const query = `UPDATE ideas SET status = $2, submitted_at = $3, updated_at = $3
	WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.IdeaStatusSubmitted, submittedAt, models.IdeaStatusDraft)
	if err != nil {
		return fmt.Errorf("submit idea: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submit rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStatus is the transition primitive used by external evaluation
// tooling; recognizedAt is persisted only for the RECOGNIZED status.
func (r *IdeaRepository) SetStatus(ctx context.Context, id string, status models.IdeaStatus, recognizedAt *time.Time) error {
	const query = `UPDATE ideas SET status = $2, recognized_at = COALESCE($3, recognized_at), updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, recognizedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set idea status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns idea summaries applying filters and the caller's
// visibility scope, newest first, with total count.
func (r *IdeaRepository) List(ctx context.Context, filter models.IdeaFilter) ([]dto.IdeaSummary, int, error) {
	base := strings.Builder{}
	base.WriteString(` FROM ideas i`)
	args := make([]interface{}, 0, 5)
	conditions := make([]string, 0, 5)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filter.ExpectedImpact != "" {
		args = append(args, filter.ExpectedImpact)
		conditions = append(conditions, fmt.Sprintf("i.expected_impact = $%d", len(args)))
	}
	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		conditions = append(conditions, fmt.Sprintf("i.campaign_id = $%d", len(args)))
	}
	if filter.SubmitterID != "" {
		args = append(args, filter.SubmitterID)
		conditions = append(conditions, fmt.Sprintf("i.submitter_id = $%d", len(args)))
	}
	if filter.VisibleToUserID != "" {
		args = append(args, filter.VisibleToUserID)
		conditions = append(conditions, fmt.Sprintf("(i.submitter_id = $%d OR i.status <> '%s')", len(args), models.IdeaStatusDraft))
	}
	if len(conditions) > 0 {
		base.WriteString(" WHERE ")
		base.WriteString(strings.Join(conditions, " AND "))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count ideas: %w", err)
	}

	query := strings.Builder{}
	query.WriteString(`SELECT i.id, i.title, i.description, i.expected_impact, i.submitter_id, i.campaign_id,
	i.status, i.created_at, i.updated_at, i.submitted_at, i.recognized_at,
	(SELECT COUNT(*) FROM contributors c WHERE c.idea_id = i.id) AS contributor_count,
	(SELECT COUNT(*) FROM documents d WHERE d.idea_id = i.id) AS document_count`)
	query.WriteString(base.String())
	query.WriteString(" ORDER BY i.created_at DESC")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	query.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize))

	var records []dto.IdeaSummary
	if err := r.db.SelectContext(ctx, &records, query.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("list ideas: %w", err)
	}
	return records, total, nil
}
