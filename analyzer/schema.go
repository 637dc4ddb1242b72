package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/kri-ruj/linksaver/models"
)

// llmAnalysis is the exact JSON shape requested from the model. Decoded
// strictly — unknown fields or a shape mismatch reject the response and
// route the article to the deterministic fallback instead of trusting
// arbitrary keys.
type llmAnalysis struct {
	Summary         string            `json:"summary"`
	Category        string            `json:"category"`
	Subcategory     string            `json:"subcategory"`
	Topics          []string          `json:"topics"`
	Tags            []string          `json:"tags"`
	People          []string          `json:"people"`
	Organizations   []string          `json:"organizations"`
	Locations       []string          `json:"locations"`
	Technologies    []string          `json:"technologies"`
	Sentiment       *models.Sentiment `json:"sentiment"`
	ComplexityLevel string            `json:"complexity_level"`
	KeyPoints       []string          `json:"key_points"`
	ActionItems     []string          `json:"action_items"`
}

// knownCategories is the closed set the analyzer reports. LLM responses
// outside the set are mapped to "General" rather than inventing new buckets.
var knownCategories = map[string]string{
	"programming": "Programming",
	"ai/ml":       "AI/ML",
	"business":    "Business",
	"science":     "Science",
	"design":      "Design",
	"health":      "Health",
	"finance":     "Finance",
	"news":        "News",
	"general":     "General",
}

// decodeAnalysis strictly decodes and validates the model's JSON output.
func decodeAnalysis(raw string) (*llmAnalysis, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var a llmAnalysis
	if err := dec.Decode(&a); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeLLMBadSchema, "LLM response does not match analysis schema", err)
	}

	if strings.TrimSpace(a.Summary) == "" {
		return nil, models.NewPipelineError(models.ErrCodeLLMBadSchema, "LLM response missing summary", nil)
	}

	if canonical, ok := knownCategories[strings.ToLower(strings.TrimSpace(a.Category))]; ok {
		a.Category = canonical
	} else {
		a.Category = "General"
	}

	if a.Sentiment != nil {
		if a.Sentiment.Score < -1.0 || a.Sentiment.Score > 1.0 {
			return nil, models.NewPipelineError(models.ErrCodeLLMBadSchema, "sentiment score out of [-1, 1]", nil)
		}
		switch strings.ToLower(a.Sentiment.Label) {
		case "positive", "negative", "neutral":
			a.Sentiment.Label = strings.ToLower(a.Sentiment.Label)
		default:
			a.Sentiment = nil
		}
	}

	switch models.Complexity(strings.ToLower(a.ComplexityLevel)) {
	case models.ComplexityBeginner, models.ComplexityIntermediate, models.ComplexityAdvanced:
		a.ComplexityLevel = strings.ToLower(a.ComplexityLevel)
	default:
		a.ComplexityLevel = ""
	}

	return &a, nil
}

func (a *llmAnalysis) toAnalysis() *models.Analysis {
	return &models.Analysis{
		Summary:         strings.TrimSpace(a.Summary),
		Category:        a.Category,
		Subcategory:     strings.TrimSpace(a.Subcategory),
		Topics:          a.Topics,
		Tags:            a.Tags,
		People:          a.People,
		Organizations:   a.Organizations,
		Locations:       a.Locations,
		Technologies:    a.Technologies,
		Sentiment:       a.Sentiment,
		ComplexityLevel: models.Complexity(a.ComplexityLevel),
		KeyPoints:       a.KeyPoints,
		ActionItems:     a.ActionItems,
		Source:          "llm",
	}
}
