package domain

import "time"

// RunStatus is the overall outcome of ProcessItems.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

// Pipeline filter labels reported in Stats.FilteredBy besides detector labels.
const (
	FilterInvalid        = "invalid"
	FilterDuplicate      = "duplicate"
	FilterSeenBefore     = "seen_before"
	FilterBelowThreshold = "below_threshold"
	FilterDiversityCap   = "diversity_cap"
	FilterMaxResults     = "max_results"
)

// Stats reports survivor counts after each stage.
type Stats struct {
	Input        int                `json:"input"`
	Valid        int                `json:"valid"`
	Deduplicated int                `json:"deduplicated"`
	Scored       int                `json:"scored"`
	Ranked       int                `json:"ranked"`
	FilteredBy   []string           `json:"filtered_by"`
	Skipped      map[SkipReason]int `json:"skipped,omitempty"`
	Errors       []string           `json:"errors,omitempty"`
}

// ProcessResult is what callers of ProcessItems always receive.
type ProcessResult struct {
	RunID   string        `json:"run_id"`
	Status  RunStatus     `json:"status"`
	Message string        `json:"message"`
	Items   []ContentItem `json:"items"`
	Stats   Stats         `json:"stats"`
}

// RunRecord is the archived form of one processed batch.
type RunRecord struct {
	ID          string
	Status      RunStatus
	Message     string
	Stats       Stats
	Items       []ContentItem
	ProcessedAt time.Time
}
