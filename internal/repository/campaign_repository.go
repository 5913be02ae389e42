package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ideation-portal-api/internal/models"
)

// CampaignRepository handles campaign persistence.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create stores a new campaign in PLANNING state.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}
	campaign.UpdatedAt = now
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusPlanning
	}
	const query = `INSERT INTO campaigns
	(id, name, description, status, start_date, end_date, created_at, updated_at)
	VALUES (:id, :name, :description, :status, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// GetByID retrieves one campaign row.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	const query = `SELECT id, name, description, status, start_date, end_date, created_at, updated_at
	FROM campaigns WHERE id = $1`
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Update persists mutable campaign fields.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now().UTC()
	const query = `UPDATE campaigns SET name = :name, description = :description, status = :status,
	start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

// List returns campaigns applying filters, newest first, with total count.
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	base := strings.Builder{}
	base.WriteString(` FROM campaigns`)
	args := make([]interface{}, 0, 2)
	if filter.Status != "" {
		args = append(args, filter.Status)
		base.WriteString(fmt.Sprintf(" WHERE status = $%d", len(args)))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	query := strings.Builder{}
	query.WriteString(`SELECT id, name, description, status, start_date, end_date, created_at, updated_at`)
	query.WriteString(base.String())
	query.WriteString(" ORDER BY created_at DESC")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	query.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize))

	var records []models.Campaign
	if err := r.db.SelectContext(ctx, &records, query.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return records, total, nil
}
