package domain

import "time"

type BookStatus string

const (
	StatusUploaded   BookStatus = "uploaded"
	StatusProcessing BookStatus = "processing"
	StatusReady      BookStatus = "ready"
	StatusFailed     BookStatus = "failed"
)

type Book struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Checksum    string     `json:"checksum"`
	StoragePath string     `json:"storage_path"`
	FileSize    int64      `json:"file_size"`
	Title       string     `json:"title,omitempty"`
	Author      string     `json:"author,omitempty"`
	Format      string     `json:"format,omitempty"`
	PageCount   int        `json:"page_count"`
	Category    string     `json:"category,omitempty"`
	Confidence  float64    `json:"confidence"`
	Status      BookStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CatalogEntry is the combined outcome of extraction and categorization for one file.
type CatalogEntry struct {
	Metadata   ExtractedMetadata  `json:"metadata"`
	Assignment CategoryAssignment `json:"assignment"`
}

type LibraryStats struct {
	Total      int                   `json:"total"`
	ByCategory map[string]int        `json:"by_category"`
	ByReading  map[ReadingStatus]int `json:"by_reading_status,omitempty"`
}
