package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kri-ruj/linksaver/models"
)

// categoryKeywords drives the deterministic classifier: each category is
// scored by how many of its keywords appear in the title + body, and the
// highest score wins. A zero-score tie lands in "General".
var categoryKeywords = map[string][]string{
	"Programming": {"python", "javascript", "golang", "code", "programming", "developer", "software", "api", "framework", "library", "github", "debugging", "compiler"},
	"AI/ML":       {"ai", "machine learning", "neural", "llm", "gpt", "model", "training", "deep learning", "artificial intelligence", "transformer", "dataset"},
	"Business":    {"startup", "business", "revenue", "market", "strategy", "customer", "product", "growth", "funding", "saas", "entrepreneur"},
	"Science":     {"research", "study", "experiment", "physics", "biology", "chemistry", "scientist", "discovery", "quantum", "climate"},
	"Design":      {"design", "ux", "ui", "typography", "interface", "usability", "figma", "prototype", "accessibility"},
	"Health":      {"health", "fitness", "diet", "exercise", "sleep", "medical", "nutrition", "mental", "wellness", "disease"},
	"Finance":     {"invest", "stock", "crypto", "bitcoin", "portfolio", "trading", "economy", "inflation", "interest rate", "bank"},
	"News":        {"breaking", "announced", "report", "election", "government", "minister", "president", "police", "court"},
}

// stopWords excluded from frequency-based tag extraction.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {},
	"out": {}, "has": {}, "have": {}, "this": {}, "that": {}, "with": {},
	"from": {}, "they": {}, "will": {}, "would": {}, "there": {}, "their": {},
	"what": {}, "about": {}, "which": {}, "when": {}, "make": {}, "like": {},
	"time": {}, "just": {}, "know": {}, "into": {}, "your": {}, "some": {},
	"could": {}, "them": {}, "other": {}, "than": {}, "then": {}, "more": {},
	"these": {}, "also": {}, "only": {}, "over": {}, "such": {}, "very": {},
	"most": {}, "after": {}, "where": {}, "being": {}, "through": {},
	"because": {}, "between": {}, "should": {}, "does": {}, "were": {},
	"been": {}, "each": {}, "while": {}, "those": {}, "here": {},
}

const (
	maxSummarySentences = 3
	maxTags             = 7
	minTagLength        = 4
	minTagFrequency     = 2
)

var reSentenceEnd = regexp.MustCompile(`([.!?])\s+`)
var reWord = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9'-]*`)

// fallbackAnalyze is the deterministic path: extractive summary, keyword
// classification and frequency tags. Sentiment, entities and topics are
// deliberately left empty — this path never fabricates what it cannot
// compute.
func fallbackAnalyze(title, bodyText string) *models.Analysis {
	return &models.Analysis{
		Summary:  extractiveSummary(bodyText, title),
		Category: classifyByKeywords(title + " " + bodyText),
		Tags:     frequencyTags(bodyText),
		Source:   "fallback",
	}
}

// extractiveSummary takes the first few sentences of the body. Falls back
// to the title when the body is empty (degraded fetch).
func extractiveSummary(bodyText, title string) string {
	text := strings.TrimSpace(bodyText)
	if text == "" {
		return title
	}

	marked := reSentenceEnd.ReplaceAllString(text, "$1\x00")
	sentences := strings.Split(marked, "\x00")

	var kept []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kept = append(kept, s)
		if len(kept) == maxSummarySentences {
			break
		}
	}
	return strings.Join(kept, " ")
}

// classifyByKeywords scores every category by keyword membership and picks
// the winner. Ties and zero scores resolve to "General".
func classifyByKeywords(text string) string {
	lower := strings.ToLower(text)

	best := "General"
	bestScore := 0

	// Sorted iteration keeps classification deterministic across runs.
	names := make([]string, 0, len(categoryKeywords))
	for name := range categoryKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0
		for _, kw := range categoryKeywords[name] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	return best
}

// frequencyTags extracts repeated meaningful words as '#'-prefixed tags:
// lowercase, stop words removed, words shorter than 4 chars dropped, only
// words seen at least twice, capped at 7, most frequent first.
func frequencyTags(bodyText string) []string {
	counts := make(map[string]int)
	for _, w := range reWord.FindAllString(strings.ToLower(bodyText), -1) {
		if len(w) < minTagLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		counts[w]++
	}

	type wordCount struct {
		word  string
		count int
	}
	var frequent []wordCount
	for w, c := range counts {
		if c >= minTagFrequency {
			frequent = append(frequent, wordCount{w, c})
		}
	}

	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].count != frequent[j].count {
			return frequent[i].count > frequent[j].count
		}
		return frequent[i].word < frequent[j].word
	})

	if len(frequent) > maxTags {
		frequent = frequent[:maxTags]
	}

	tags := make([]string, 0, len(frequent))
	for _, wc := range frequent {
		tags = append(tags, "#"+wc.word)
	}
	return tags
}
