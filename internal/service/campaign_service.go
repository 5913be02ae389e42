package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
)

const campaignDateLayout = "2006-01-02"

type campaignStore interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
}

// CampaignService manages campaign CRUD. Write access is gated to
// admins by the RBAC middleware; the service enforces the CLOSED
// immutability rule.
type CampaignService struct {
	repo   campaignStore
	logger *zap.Logger
}

// NewCampaignService constructs the service.
func NewCampaignService(repo campaignStore, logger *zap.Logger) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{repo: repo, logger: logger}
}

// Create validates and stores a new campaign.
func (s *CampaignService) Create(ctx context.Context, req dto.CreateCampaignRequest) (*models.Campaign, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be 1-200 characters")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description is required")
	}
	start, err := time.Parse(campaignDateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(campaignDateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	campaign := &models.Campaign{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      models.CampaignStatusPlanning,
		StartDate:   start,
		EndDate:     end,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	return campaign, nil
}

// Get returns one campaign.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	return campaign, nil
}

// Update mutates campaign fields; CLOSED campaigns are immutable.
func (s *CampaignService) Update(ctx context.Context, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "closed campaigns cannot be modified")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 200 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must be 1-200 characters")
		}
		campaign.Name = name
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "description is required")
		}
		campaign.Description = desc
	}
	if req.Status != nil {
		if !models.ValidCampaignStatus(*req.Status) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid campaign status")
		}
		campaign.Status = *req.Status
	}
	if req.StartDate != nil {
		start, err := time.Parse(campaignDateLayout, *req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
		}
		campaign.StartDate = start
	}
	if req.EndDate != nil {
		end, err := time.Parse(campaignDateLayout, *req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
		}
		campaign.EndDate = end
	}
	if campaign.EndDate.Before(campaign.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign")
	}
	return campaign, nil
}

// List returns campaigns with pagination metadata.
func (s *CampaignService) List(ctx context.Context, filter dto.CampaignFilter) ([]models.Campaign, *models.Pagination, error) {
	if filter.Status != "" && !models.ValidCampaignStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid campaign status")
	}
	records, total, err := s.repo.List(ctx, models.CampaignFilter{
		Status:   filter.Status,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
