package models

import "time"

// IdeaStatus tracks an idea through the review workflow.
type IdeaStatus string

const (
	IdeaStatusDraft           IdeaStatus = "DRAFT"
	IdeaStatusSubmitted       IdeaStatus = "SUBMITTED"
	IdeaStatusUnderEvaluation IdeaStatus = "UNDER_EVALUATION"
	IdeaStatusEvaluated       IdeaStatus = "EVALUATED"
	IdeaStatusRecognized      IdeaStatus = "RECOGNIZED"
)

// ExpectedImpact grades the anticipated value of an idea.
type ExpectedImpact string

const (
	ImpactHigh   ExpectedImpact = "HIGH"
	ImpactMedium ExpectedImpact = "MEDIUM"
	ImpactLow    ExpectedImpact = "LOW"
)

// ContributorRole distinguishes the originating submitter from added
// collaborators.
type ContributorRole string

const (
	RoleSubmitter   ContributorRole = "SUBMITTER"
	RoleContributor ContributorRole = "CONTRIBUTOR"
)

// Idea is a proposal submitted by a user within a campaign.
type Idea struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	ExpectedImpact ExpectedImpact `db:"expected_impact" json:"expected_impact"`
	SubmitterID    string         `db:"submitter_id" json:"submitter_id"`
	CampaignID     string         `db:"campaign_id" json:"campaign_id"`
	Status         IdeaStatus     `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	SubmittedAt    *time.Time     `db:"submitted_at" json:"submitted_at,omitempty"`
	RecognizedAt   *time.Time     `db:"recognized_at" json:"recognized_at,omitempty"`
}

// Contributor associates a user with an idea.
type Contributor struct {
	ID      string          `db:"id" json:"id"`
	IdeaID  string          `db:"idea_id" json:"idea_id"`
	UserID  string          `db:"user_id" json:"user_id"`
	Role    ContributorRole `db:"role" json:"role"`
	AddedAt time.Time       `db:"added_at" json:"added_at"`
}

// IdeaFilter narrows idea listing queries. When VisibleToUserID is set,
// results are limited to that user's own ideas plus ideas that have left
// DRAFT (the capability scope for non-admin callers).
type IdeaFilter struct {
	Status          IdeaStatus
	ExpectedImpact  ExpectedImpact
	CampaignID      string
	SubmitterID     string
	VisibleToUserID string
	Page            int
	PageSize        int
}

// ValidIdeaStatus reports whether the value is a known workflow status.
func ValidIdeaStatus(s IdeaStatus) bool {
	switch s {
	case IdeaStatusDraft, IdeaStatusSubmitted, IdeaStatusUnderEvaluation, IdeaStatusEvaluated, IdeaStatusRecognized:
		return true
	default:
		return false
	}
}

// ValidExpectedImpact reports whether the value is a known impact level.
func ValidExpectedImpact(i ExpectedImpact) bool {
	switch i {
	case ImpactHigh, ImpactMedium, ImpactLow:
		return true
	default:
		return false
	}
}
