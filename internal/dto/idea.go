package dto

import "github.com/noah-isme/ideation-portal-api/internal/models"

// CreateIdeaRequest is the payload for drafting a new idea.
type CreateIdeaRequest struct {
	Title          string                `json:"title" binding:"required"`
	Description    string                `json:"description" binding:"required"`
	ExpectedImpact models.ExpectedImpact `json:"expected_impact" binding:"required"`
	CampaignID     string                `json:"campaign_id" binding:"required"`
}

// UpdateIdeaRequest mutates a draft idea. Nil fields are left untouched.
type UpdateIdeaRequest struct {
	Title          *string                `json:"title"`
	Description    *string                `json:"description"`
	ExpectedImpact *models.ExpectedImpact `json:"expected_impact"`
}

// AddContributorRequest names the user to add as a contributor.
type AddContributorRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// IdeaFilter captures idea list query parameters.
type IdeaFilter struct {
	Status         models.IdeaStatus
	ExpectedImpact models.ExpectedImpact
	CampaignID     string
	Page           int
	PageSize       int
}

// IdeaSummary is the list-view shape with aggregate counts.
type IdeaSummary struct {
	models.Idea
	ContributorCount int `db:"contributor_count" json:"contributor_count"`
	DocumentCount    int `db:"document_count" json:"document_count"`
}

// ContributorDetail enriches a contributor row with user display fields.
type ContributorDetail struct {
	models.Contributor
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
}

// IdeaDetail is the detail-view shape with owned collections.
type IdeaDetail struct {
	models.Idea
	Contributors []ContributorDetail `json:"contributors"`
	Documents    []models.Document   `json:"documents"`
}
