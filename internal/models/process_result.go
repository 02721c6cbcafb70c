package models

// ProcessResult is the single-file endpoint response.
type ProcessResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Filename      string `json:"filename,omitempty"`
	ExtractedDate string `json:"extractedDate,omitempty"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
}
