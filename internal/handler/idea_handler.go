package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
	"github.com/noah-isme/ideation-portal-api/pkg/response"
)

type ideaService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateIdeaRequest) (*models.Idea, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*dto.IdeaDetail, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateIdeaRequest) (*models.Idea, error)
	Submit(ctx context.Context, claims *models.JWTClaims, id string) (*models.Idea, error)
	AddContributor(ctx context.Context, claims *models.JWTClaims, ideaID string, req dto.AddContributorRequest) (*models.Contributor, error)
	ListContributors(ctx context.Context, claims *models.JWTClaims, ideaID string) ([]dto.ContributorDetail, error)
	List(ctx context.Context, claims *models.JWTClaims, filter dto.IdeaFilter) ([]dto.IdeaSummary, *models.Pagination, error)
	MyIdeas(ctx context.Context, claims *models.JWTClaims, page, pageSize int) ([]dto.IdeaSummary, *models.Pagination, error)
}

// IdeaHandler manages idea HTTP endpoints.
type IdeaHandler struct {
	service ideaService
}

// NewIdeaHandler constructs the handler.
func NewIdeaHandler(service ideaService) *IdeaHandler {
	return &IdeaHandler{service: service}
}

// Create godoc
// @Summary Draft a new idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param payload body dto.CreateIdeaRequest true "Idea payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas [post]
func (h *IdeaHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid idea payload"))
		return
	}

	idea, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, idea, nil)
}

// Get godoc
// @Summary Get idea detail
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id} [get]
func (h *IdeaHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Update a draft idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body dto.UpdateIdeaRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id} [patch]
func (h *IdeaHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid idea payload"))
		return
	}

	idea, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, idea, nil)
}

// Submit godoc
// @Summary Submit a draft idea for evaluation
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/submit [post]
func (h *IdeaHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	idea, err := h.service.Submit(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, idea, nil)
}

// AddContributor godoc
// @Summary Add a contributor to an idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body dto.AddContributorRequest true "Contributor payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/contributors [post]
func (h *IdeaHandler) AddContributor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddContributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id is required"))
		return
	}

	contributor, err := h.service.AddContributor(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, contributor, nil)
}

// ListContributors godoc
// @Summary List idea contributors
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/contributors [get]
func (h *IdeaHandler) ListContributors(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	contributors, err := h.service.ListContributors(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contributors, nil)
}

// List godoc
// @Summary List ideas
// @Tags Ideas
// @Produce json
// @Param status query string false "Status filter"
// @Param expected_impact query string false "Impact filter"
// @Param campaign_id query string false "Campaign filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas [get]
func (h *IdeaHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := dto.IdeaFilter{
		Status:         models.IdeaStatus(c.Query("status")),
		ExpectedImpact: models.ExpectedImpact(c.Query("expected_impact")),
		CampaignID:     c.Query("campaign_id"),
		Page:           queryInt(c, "page"),
		PageSize:       queryInt(c, "page_size"),
	}

	ideas, pagination, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ideas, pagination)
}

// MyIdeas godoc
// @Summary List the caller's own ideas
// @Tags Ideas
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/mine [get]
func (h *IdeaHandler) MyIdeas(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ideas, pagination, err := h.service.MyIdeas(c.Request.Context(), claims, queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ideas, pagination)
}
