package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ideation-portal-api/internal/dto"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/internal/service"
	appErrors "github.com/noah-isme/ideation-portal-api/pkg/errors"
	"github.com/noah-isme/ideation-portal-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, claims *models.JWTClaims, ideaID string, upload service.DocumentUpload) (*models.Document, error)
	ListByIdea(ctx context.Context, claims *models.JWTClaims, ideaID string) ([]models.Document, error)
	GetScanStatus(ctx context.Context, claims *models.JWTClaims, documentID string) (*dto.ScanStatusResponse, error)
	GetDownloadURL(ctx context.Context, claims *models.JWTClaims, documentID string) (*dto.DocumentDownloadResponse, error)
	Download(ctx context.Context, token string) (*service.DocumentDownload, error)
}

// DocumentHandler manages document HTTP endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Upload godoc
// @Summary Upload a document to an idea
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Idea ID"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	doc, err := h.service.Upload(c.Request.Context(), claims, c.Param("id"), service.DocumentUpload{
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, doc, nil)
}

// List godoc
// @Summary List an idea's documents
// @Tags Documents
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	docs, err := h.service.ListByIdea(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// ScanStatus godoc
// @Summary Poll a document's virus scan status
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/scan-status [get]
func (h *DocumentHandler) ScanStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.service.GetScanStatus(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// DownloadURL godoc
// @Summary Issue a signed download link
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/download-url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	resp, err := h.service.GetDownloadURL(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Download godoc
// @Summary Download a document via signed token
// @Tags Documents
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	download, err := h.service.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	c.Header("Content-Type", "application/octet-stream")
	c.DataFromReader(http.StatusOK, download.FileSize, "application/octet-stream", download.File, nil)
}
