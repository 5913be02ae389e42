package models

import "time"

// VirusScanStatus tracks the asynchronous scan verdict for a document.
// PENDING is the initial state; CLEAN and INFECTED are terminal.
type VirusScanStatus string

const (
	ScanStatusPending  VirusScanStatus = "PENDING"
	ScanStatusClean    VirusScanStatus = "CLEAN"
	ScanStatusInfected VirusScanStatus = "INFECTED"
)

// Document is a file attached to an idea. FilePath is the opaque storage
// key assigned at upload time and is never client supplied.
type Document struct {
	ID              string          `db:"id" json:"id"`
	IdeaID          string          `db:"idea_id" json:"idea_id"`
	FileName        string          `db:"file_name" json:"file_name"`
	FilePath        string          `db:"file_path" json:"file_path"`
	FileSize        int64           `db:"file_size" json:"file_size"`
	FileType        string          `db:"file_type" json:"file_type"`
	UploadedBy      *string         `db:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt      time.Time       `db:"uploaded_at" json:"uploaded_at"`
	VirusScanStatus VirusScanStatus `db:"virus_scan_status" json:"virus_scan_status"`
	VirusScanResult *string         `db:"virus_scan_result" json:"virus_scan_result,omitempty"`
}
