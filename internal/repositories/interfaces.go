package repositories

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a paper or stored result does not exist.
var ErrNotFound = errors.New("record not found")

// ===== SHARED FILTER STRUCTS =====

type ResultFilters struct {
	Mode      string     `json:"mode"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "submitted_at", "percentage"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ===== STATS STRUCTS =====

type PaperResultStats struct {
	PaperID        string  `json:"paper_id"`
	Submissions    int64   `json:"submissions"`
	AveragePercent float64 `json:"average_percent"`
	BestPercent    float64 `json:"best_percent"`
	AutoSubmitted  int64   `json:"auto_submitted"`
}
