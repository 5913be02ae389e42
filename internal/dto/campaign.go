package dto

import "github.com/noah-isme/ideation-portal-api/internal/models"

// CreateCampaignRequest is the payload for opening a new campaign.
type CreateCampaignRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// UpdateCampaignRequest mutates campaign metadata or status. Nil fields
// are left untouched.
type UpdateCampaignRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Status      *models.CampaignStatus `json:"status"`
	StartDate   *string                `json:"start_date"`
	EndDate     *string                `json:"end_date"`
}

// CampaignFilter captures list query parameters.
type CampaignFilter struct {
	Status   models.CampaignStatus
	Page     int
	PageSize int
}
