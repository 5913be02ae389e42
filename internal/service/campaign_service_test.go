package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
)

type campaignRepoStub struct {
	campaigns  map[string]*models.Campaign
	lastFilter models.CampaignFilter
}

func newCampaignRepoStub() *campaignRepoStub {
	return &campaignRepoStub{campaigns: make(map[string]*models.Campaign)}
}

func (r *campaignRepoStub) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = fmt.Sprintf("camp-%d", len(r.campaigns)+1)
	}
	campaign.CreatedAt = time.Now().UTC()
	campaign.UpdatedAt = campaign.CreatedAt
	copy := *campaign
	r.campaigns[campaign.ID] = &copy
	return nil
}

func (r *campaignRepoStub) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	if c, ok := r.campaigns[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *campaignRepoStub) Update(ctx context.Context, campaign *models.Campaign) error {
	if _, ok := r.campaigns[campaign.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *campaign
	r.campaigns[campaign.ID] = &copy
	return nil
}

func (r *campaignRepoStub) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	r.lastFilter = filter
	result := make([]models.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		result = append(result, *c)
	}
	return result, len(result), nil
}

func TestCampaignCreateDefaultsToPlanning(t *testing.T) {
	repo := newCampaignRepoStub()
	svc := NewCampaignService(repo, nil)

	campaign, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name:        "  Q3 Innovation  ",
		Description: "Quarterly ideas drive",
		StartDate:   "2026-09-01",
		EndDate:     "2026-09-30",
	})
	require.NoError(t, err)
	require.Equal(t, "Q3 Innovation", campaign.Name)
	require.Equal(t, models.CampaignStatusPlanning, campaign.Status)
	require.NotEmpty(t, campaign.ID)
}

func TestCampaignCreateValidatesDates(t *testing.T) {
	svc := NewCampaignService(newCampaignRepoStub(), nil)

	_, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name: "Drive", Description: "d", StartDate: "2026-09-30", EndDate: "2026-09-01",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name: "Drive", Description: "d", StartDate: "Sep 1 2026", EndDate: "2026-09-30",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCampaignUpdateRejectsClosed(t *testing.T) {
	repo := newCampaignRepoStub()
	svc := NewCampaignService(repo, nil)

	campaign, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name: "Drive", Description: "d", StartDate: "2026-09-01", EndDate: "2026-09-30",
	})
	require.NoError(t, err)
	repo.campaigns[campaign.ID].Status = models.CampaignStatusClosed

	name := "Renamed"
	_, err = svc.Update(context.Background(), campaign.ID, dto.UpdateCampaignRequest{Name: &name})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCampaignUpdateTransitionsStatus(t *testing.T) {
	repo := newCampaignRepoStub()
	svc := NewCampaignService(repo, nil)

	campaign, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
		Name: "Drive", Description: "d", StartDate: "2026-09-01", EndDate: "2026-09-30",
	})
	require.NoError(t, err)

	active := models.CampaignStatusActive
	updated, err := svc.Update(context.Background(), campaign.ID, dto.UpdateCampaignRequest{Status: &active})
	require.NoError(t, err)
	require.Equal(t, models.CampaignStatusActive, updated.Status)

	bogus := models.CampaignStatus("ARCHIVED")
	_, err = svc.Update(context.Background(), campaign.ID, dto.UpdateCampaignRequest{Status: &bogus})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCampaignGetNotFound(t *testing.T) {
	svc := NewCampaignService(newCampaignRepoStub(), nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCampaignListFiltersByStatus(t *testing.T) {
	repo := newCampaignRepoStub()
	svc := NewCampaignService(repo, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
			Name: fmt.Sprintf("Drive %d", i), Description: "d",
			StartDate: "2026-09-01", EndDate: "2026-09-30",
		})
		require.NoError(t, err)
	}
	repo.campaigns["camp-2"].Status = models.CampaignStatusActive

	records, pagination, err := svc.List(context.Background(), dto.CampaignFilter{Status: models.CampaignStatusActive})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, pagination.TotalCount)

	_, _, err = svc.List(context.Background(), dto.CampaignFilter{Status: "BOGUS"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
