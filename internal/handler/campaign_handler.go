package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
	"github.com/noah-isme/ideation-portal-api/pkg/response"
)

type campaignService interface {
	Create(ctx context.Context, req dto.CreateCampaignRequest) (*models.Campaign, error)
	Get(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error)
	List(ctx context.Context, filter dto.CampaignFilter) ([]models.Campaign, *models.Pagination, error)
}

// CampaignHandler manages campaign HTTP endpoints.
type CampaignHandler struct {
	service campaignService
}

// NewCampaignHandler constructs the handler.
func NewCampaignHandler(service campaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// Create godoc
// @Summary Create campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body dto.CreateCampaignRequest true "Campaign payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid campaign payload"))
		return
	}

	campaign, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, campaign, nil)
}

// Get godoc
// @Summary Get campaign
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// Update godoc
// @Summary Update campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.UpdateCampaignRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns/{id} [patch]
func (h *CampaignHandler) Update(c *gin.Context) {
	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid campaign payload"))
		return
	}

	campaign, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaign, nil)
}

// List godoc
// @Summary List campaigns
// @Tags Campaigns
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	filter := dto.CampaignFilter{
		Status:   models.CampaignStatus(c.Query("status")),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}

	campaigns, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campaigns, pagination)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
