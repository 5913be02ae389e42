package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
)

type campaignServiceMock struct {
	campaign  *models.Campaign
	campaigns []models.Campaign
	err       error
	gotFilter dto.CampaignFilter
}

func (m *campaignServiceMock) Create(ctx context.Context, req dto.CreateCampaignRequest) (*models.Campaign, error) {
	return m.campaign, m.err
}

func (m *campaignServiceMock) Get(ctx context.Context, id string) (*models.Campaign, error) {
	return m.campaign, m.err
}

func (m *campaignServiceMock) Update(ctx context.Context, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error) {
	return m.campaign, m.err
}

func (m *campaignServiceMock) List(ctx context.Context, filter dto.CampaignFilter) ([]models.Campaign, *models.Pagination, error) {
	m.gotFilter = filter
	return m.campaigns, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.campaigns)}, m.err
}

func TestCampaignHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{campaign: &models.Campaign{ID: "camp-1", Status: models.CampaignStatusPlanning}}
	handler := NewCampaignHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateCampaignRequest{
		Name: "Drive", Description: "d", StartDate: "2026-09-01", EndDate: "2026-09-30",
	})
	c, w := authedContext(http.MethodPost, "/campaigns", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCampaignHandlerUpdateClosedConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "closed campaigns cannot be modified")}
	handler := NewCampaignHandler(mockSvc)

	c, w := authedContext(http.MethodPatch, "/campaigns/camp-1", []byte(`{"name":"x"}`))
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCampaignHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &campaignServiceMock{}
	handler := NewCampaignHandler(mockSvc)

	c, w := authedContext(http.MethodGet, "/campaigns", nil)
	c.Request.URL.RawQuery = "status=ACTIVE&page=3&page_size=5"

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.CampaignStatusActive, mockSvc.gotFilter.Status)
	require.Equal(t, 3, mockSvc.gotFilter.Page)
	require.Equal(t, 5, mockSvc.gotFilter.PageSize)
}
