package models

import "time"

// FetchResult is the fail-soft output of the content fetcher.
//
// Degraded is set when the page could not be fetched or parsed; in that
// case Title is derived from the URL itself, BodyText is empty and
// WordCount is 0. The pipeline proceeds regardless — a save action always
// produces some record.
type FetchResult struct {
	URL          string
	FinalURL     string
	StatusCode   int
	Title        string
	BodyText     string
	BodyMarkdown string
	Description  string
	Author       string
	PublishedAt  *time.Time
	WordCount    int
	Degraded     bool
}

// ReadingTimeMinutes derives reading time from the fetched word count.
func (r *FetchResult) ReadingTimeMinutes() int {
	return ReadingTime(r.WordCount)
}

// Analysis is the typed result of content analysis, produced either by the
// LLM path or the deterministic fallback. Fields the active path cannot
// produce are left zero — the fallback path deliberately omits sentiment,
// entities and topics rather than fabricating them.
type Analysis struct {
	Summary         string     `json:"summary"`
	Category        string     `json:"category"`
	Subcategory     string     `json:"subcategory,omitempty"`
	Topics          []string   `json:"topics,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	People          []string   `json:"people,omitempty"`
	Organizations   []string   `json:"organizations,omitempty"`
	Locations       []string   `json:"locations,omitempty"`
	Technologies    []string   `json:"technologies,omitempty"`
	Sentiment       *Sentiment `json:"sentiment,omitempty"`
	ComplexityLevel Complexity `json:"complexity_level,omitempty"`
	KeyPoints       []string   `json:"key_points,omitempty"`
	ActionItems     []string   `json:"action_items,omitempty"`
	PriorityScore   float64    `json:"priority_score"`

	// Source is "llm" or "fallback".
	Source string `json:"source"`
}

// SaveOutcomeKind classifies the result of a save attempt.
type SaveOutcomeKind string

const (
	SaveCreated   SaveOutcomeKind = "created"
	SaveDuplicate SaveOutcomeKind = "duplicate"
	SaveError     SaveOutcomeKind = "error"
)

// SaveOutcome is returned by the persistence layer for every save attempt.
// On SaveCreated, Article is the newly inserted record. On SaveDuplicate,
// Article is the previously saved record with the same fingerprint. On
// SaveError, Err carries the cause (logged server-side, never shown raw
// to the user).
type SaveOutcome struct {
	Kind    SaveOutcomeKind
	Article *Article
	Err     error
}
