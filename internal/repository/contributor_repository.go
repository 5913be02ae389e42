package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
)

// ErrContributorExists signals the (idea, user) pair is already present.
var ErrContributorExists = errors.New("contributor already exists")

// ContributorRepository handles contributor persistence.
type ContributorRepository struct {
	db *sqlx.DB
}

// NewContributorRepository constructs the repository.
func NewContributorRepository(db *sqlx.DB) *ContributorRepository {
	return &ContributorRepository{db: db}
}

// Create inserts a contributor using an atomic create-or-fail: the
// conflict target is the (idea_id, user_id) unique constraint, so two
// racing inserts resolve to exactly one row and one ErrContributorExists.
func (r *ContributorRepository) Create(ctx context.Context, contributor *models.Contributor) error {
	if contributor.ID == "" {
		contributor.ID = uuid.NewString()
	}
	if contributor.AddedAt.IsZero() {
		contributor.AddedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contributors (id, idea_id, user_id, role, added_at)
	VALUES (:id, :idea_id, :user_id, :role, :added_at)
	ON CONFLICT (idea_id, user_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, contributor)
	if err != nil {
		return fmt.Errorf("create contributor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check contributor rows: %w", err)
	}
	if affected == 0 {
		return ErrContributorExists
	}
	return nil
}

// ListByIdea returns contributors with user display fields, oldest first.
func (r *ContributorRepository) ListByIdea(ctx context.Context, ideaID string) ([]dto.ContributorDetail, error) {
	const query = `SELECT c.id, c.idea_id, c.user_id, c.role, c.added_at, u.email, u.full_name
	FROM contributors c JOIN users u ON u.id = c.user_id
	WHERE c.idea_id = $1 ORDER BY c.added_at ASC`
	var records []dto.ContributorDetail
	if err := r.db.SelectContext(ctx, &records, query, ideaID); err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	return records, nil
}
