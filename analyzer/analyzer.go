// Package analyzer turns extracted article text into a structured Analysis.
//
// Two mutually exclusive paths: a structured-JSON LLM call when an API key
// is configured, and a deterministic fallback (extractive summary, keyword
// classification, frequency tags) otherwise. Any LLM failure — transport,
// auth, quota, schema mismatch — silently routes to the fallback so the
// pipeline never stalls on the model.
package analyzer

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
)

// Analyzer produces an Analysis for fetched article content.
type Analyzer struct {
	cfg config.LLMConfig
	llm *llmClient
}

// New creates an Analyzer. httpClient may be nil (defaults are applied);
// it is injectable for tests.
func New(cfg config.LLMConfig, httpClient *http.Client) *Analyzer {
	a := &Analyzer{cfg: cfg}
	if cfg.APIKey != "" {
		a.llm = newLLMClient(cfg, httpClient)
	}
	return a
}

// LLMEnabled reports whether the LLM path is configured.
func (a *Analyzer) LLMEnabled() bool {
	return a.llm != nil
}

// Analyze runs the LLM path when configured and the article has enough text
// to be worth a model call, falling back to the deterministic path on any
// failure. The returned Analysis always has a non-empty Summary and
// Category, and always carries a PriorityScore in [0, 100].
func (a *Analyzer) Analyze(ctx context.Context, title, bodyText, url string, publishedAt *time.Time) *models.Analysis {
	var analysis *models.Analysis

	if a.llm != nil && strings.TrimSpace(bodyText) != "" {
		llmResult, err := a.llm.analyze(ctx, title, bodyText, url)
		if err != nil {
			slog.Warn("LLM analysis failed, using deterministic fallback",
				"url", url, "error", err)
		} else {
			analysis = llmResult.toAnalysis()
		}
	}

	if analysis == nil {
		analysis = fallbackAnalyze(title, bodyText)
	}

	analysis.PriorityScore = priorityScore(bodyText, analysis.Category, publishedAt)
	return analysis
}

// Category weights for priority scoring: technical and time-sensitive
// material surfaces first on the dashboard.
var categoryWeights = map[string]float64{
	"Programming": 18,
	"AI/ML":       20,
	"News":        15,
	"Science":     12,
	"Business":    10,
	"Finance":     10,
	"Design":      8,
	"Health":      8,
	"General":     5,
}

// priorityScore computes the weighted urgency score:
// base 40 + content-length quality (≤25) + category weight (≤20) +
// recency bonus (≤15), clamped to [0, 100]. Higher is more urgent.
func priorityScore(bodyText, category string, publishedAt *time.Time) float64 {
	score := 40.0

	// Longer extractions indicate a substantive article. 2500+ words
	// earns the full quality credit.
	words := len(strings.Fields(bodyText))
	score += math.Min(25, float64(words)/100)

	score += categoryWeights[category]

	if publishedAt != nil {
		age := time.Since(*publishedAt)
		switch {
		case age < 24*time.Hour:
			score += 15
		case age < 7*24*time.Hour:
			score += 10
		case age < 30*24*time.Hour:
			score += 5
		}
	}

	return math.Max(0, math.Min(100, score))
}
