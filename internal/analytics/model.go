package analytics

import "time"

// Summary aggregates recorded chat traffic since a point in time.
type Summary struct {
	Since           time.Time      `json:"since"`
	Requests        int64          `json:"requests"`
	AvgConfidence   float64        `json:"avg_confidence"`
	AvgProcessingMs float64        `json:"avg_processing_time_ms"`
	ByQueryType     map[string]int `json:"by_query_type"`
	FailuresByStage map[string]int `json:"failures_by_stage"`
}
