package models

import "time"

// CampaignStatus tracks where a campaign sits in its schedule.
type CampaignStatus string

const (
	CampaignStatusPlanning CampaignStatus = "PLANNING"
	CampaignStatusActive   CampaignStatus = "ACTIVE"
	CampaignStatusClosed   CampaignStatus = "CLOSED"
)

// Campaign is a time-boxed container ideas are submitted against.
type Campaign struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Status      CampaignStatus `db:"status" json:"status"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	EndDate     time.Time      `db:"end_date" json:"end_date"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// CampaignFilter narrows listing queries.
type CampaignFilter struct {
	Status   CampaignStatus
	Page     int
	PageSize int
}

// ValidCampaignStatus reports whether the value is a known status.
func ValidCampaignStatus(s CampaignStatus) bool {
	switch s {
	case CampaignStatusPlanning, CampaignStatusActive, CampaignStatusClosed:
		return true
	default:
		return false
	}
}
