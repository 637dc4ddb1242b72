package models

import "time"

// ErrorResponse is the generic failure envelope used where no richer
// response type applies (middleware rejections, webhook errors).
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ArticleListResponse is the response for GET /api/v1/articles.
type ArticleListResponse struct {
	Success  bool       `json:"success"`
	Articles []*Article `json:"articles"`
	Count    int        `json:"count"`
}

// ArticleResponse wraps a single article record.
type ArticleResponse struct {
	Success bool         `json:"success"`
	Article *Article     `json:"article,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// UpdateStageRequest is the payload for POST /api/v1/articles/:id/stage.
type UpdateStageRequest struct {
	Stage Stage `json:"stage" binding:"required"`
}

// UpdateNotesRequest is the payload for POST /api/v1/articles/:id/notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// ArchiveRequest is the payload for POST /api/v1/articles/:id/archive.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

// Recommendation is one entry in a similar-articles response.
type Recommendation struct {
	Article *Article `json:"article"`
	Score   float64  `json:"score"`
	Reason  string   `json:"reason"`
}

// RecommendResponse is the response for GET /api/v1/articles/:id/similar.
type RecommendResponse struct {
	Success         bool             `json:"success"`
	Recommendations []Recommendation `json:"recommendations"`
	Error           *ErrorDetail     `json:"error,omitempty"`
}

// DuplicatePair reports two articles whose content is near-identical even
// though their URLs differ. Distinct from the exact-URL dedup at save time.
type DuplicatePair struct {
	A     *Article `json:"a"`
	B     *Article `json:"b"`
	Score float64  `json:"score"`
}

// DuplicatesResponse is the response for GET /api/v1/duplicates.
type DuplicatesResponse struct {
	Success bool            `json:"success"`
	Pairs   []DuplicatePair `json:"pairs"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// Stats aggregates the stored collection for the dashboard.
type Stats struct {
	Total             int            `json:"total"`
	ByStage           map[string]int `json:"by_stage"`
	ByCategory        map[string]int `json:"by_category"`
	CompletedLast7d   int            `json:"completed_last_7d"`
	AvgReadingMinutes float64        `json:"avg_reading_minutes"`
	QualityTiers      map[string]int `json:"quality_tiers"`
	CompletionRate    float64        `json:"completion_rate"`
}

// StatsResponse is the response for GET /api/v1/stats.
type StatsResponse struct {
	Success bool         `json:"success"`
	Stats   *Stats       `json:"stats,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// IngestRecord is one row of the ingest log: a single pipeline run for a
// single URL, kept for the dashboard's activity view.
type IngestRecord struct {
	ID             int64     `json:"id"`
	OwnerID        string    `json:"owner_id"`
	URL            string    `json:"url"`
	Outcome        string    `json:"outcome"`
	Degraded       bool      `json:"degraded"`
	AnalysisSource string    `json:"analysis_source"`
	DurationMs     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
