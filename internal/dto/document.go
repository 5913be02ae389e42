package dto

import "github.com/noah-isme/ideation-portal-api/internal/models"

// ScanStatusResponse reports the scan pipeline's view of a document.
type ScanStatusResponse struct {
	ID     string                 `json:"id"`
	Status models.VirusScanStatus `json:"status"`
	Result *string                `json:"result"`
}

// DocumentDownloadResponse enriches metadata with a signed download URL.
type DocumentDownloadResponse struct {
	models.Document
	DownloadURL string `json:"download_url"`
}
