package models

import "time"

// Stage is the Kanban-style lifecycle position of a saved article.
type Stage string

const (
	StageInbox     Stage = "inbox"
	StageReading   Stage = "reading"
	StageReviewing Stage = "reviewing"
	StageCompleted Stage = "completed"
)

// ValidStage reports whether s is one of the known lifecycle stages.
// Transitions are user-driven and unordered; only the value itself is checked.
func ValidStage(s Stage) bool {
	switch s {
	case StageInbox, StageReading, StageReviewing, StageCompleted:
		return true
	}
	return false
}

// Priority is the user-assigned urgency of an article.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Complexity is the estimated difficulty of an article's content.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// Sentiment holds the analyzer's sentiment classification.
// Score is always within [-1.0, 1.0]; Label is "positive", "negative"
// or "neutral".
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Article is the central persisted entity: one saved URL for one owner,
// enriched with extracted content and analysis.
type Article struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	URL            string `json:"url"`
	URLFingerprint string `json:"url_fingerprint"`

	Title        string `json:"title"`
	RawText      string `json:"raw_text,omitempty"`
	BodyMarkdown string `json:"body_markdown,omitempty"`
	Summary      string `json:"summary"`

	Category        string     `json:"category"`
	Subcategory     string     `json:"subcategory,omitempty"`
	Topics          []string   `json:"topics,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Sentiment       *Sentiment `json:"sentiment,omitempty"`
	ComplexityLevel Complexity `json:"complexity_level,omitempty"`

	// Entity lists are free-text names as extracted; duplicates across
	// articles are not canonicalised (accepted schema limitation).
	People        []string `json:"people,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
	Locations     []string `json:"locations,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`

	KeyPoints   []string `json:"key_points,omitempty"`
	ActionItems []string `json:"action_items,omitempty"`

	WordCount          int     `json:"word_count"`
	ReadingTimeMinutes int     `json:"reading_time_minutes"`
	PriorityScore      float64 `json:"priority_score"`
	SimHash            uint64  `json:"-"`

	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SavedAt     time.Time  `json:"saved_at"`

	Stage          Stage      `json:"stage"`
	StageUpdatedAt time.Time  `json:"stage_updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Priority       Priority   `json:"priority"`
	StudyNotes     string     `json:"study_notes,omitempty"`
	IsArchived     bool       `json:"is_archived"`

	// AnalysisSource records whether the analysis came from the LLM
	// ("llm") or the deterministic fallback ("fallback").
	AnalysisSource string `json:"analysis_source"`
}

// ReadingTime converts a word count to whole minutes at ~200 wpm.
// Never returns less than 1, even for an empty body.
func ReadingTime(wordCount int) int {
	minutes := wordCount / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
