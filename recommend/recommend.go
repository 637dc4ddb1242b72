// Package recommend builds a TF-IDF vector space over a user's saved
// articles and answers two questions: "what else should I read after
// this?" and "which saves cover the same content under different URLs?".
//
// The index is rebuilt per request from the non-archived articles of one
// owner. Collections here are small (hundreds, not millions), so the
// straightforward dense approach beats maintaining an incremental index.
package recommend

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kri-ruj/linksaver/models"
	"github.com/kri-ruj/linksaver/simhash"
)

// Reason bands for Similar. Scores above highBand mean the two documents
// share most of their vocabulary; above relatedBand they share a topic.
const (
	highBand    = 0.7
	relatedBand = 0.4
)

// maxHammingPrefilter caps the simhash distance at which a pair is even
// considered by Duplicates. 12 of 64 bits differing still leaves plenty
// of shared vocabulary, so true content duplicates survive the filter.
const maxHammingPrefilter = 12

// DefaultDuplicateThreshold is the cosine score above which two articles
// with different URLs are reported as content duplicates.
const DefaultDuplicateThreshold = 0.8

type document struct {
	article *models.Article
	vector  map[string]float64
	norm    float64
}

// Index is a TF-IDF vector space over one owner's articles.
type Index struct {
	docs  []document
	byID  map[string]int
	idf   map[string]float64
	total int
}

// BuildIndex computes TF-IDF vectors for the given articles. Articles
// with no usable text (degraded fetches with empty title) still get an
// entry so Similar can answer for them, just with an empty vector.
func BuildIndex(articles []*models.Article) *Index {
	ix := &Index{
		byID:  make(map[string]int, len(articles)),
		idf:   make(map[string]float64),
		total: len(articles),
	}

	termFreqs := make([]map[string]int, len(articles))
	docFreq := make(map[string]int)

	for i, a := range articles {
		tf := termCounts(documentText(a))
		termFreqs[i] = tf
		for term := range tf {
			docFreq[term]++
		}
	}

	// Smoothed IDF keeps terms present in every document from zeroing
	// out entirely while still down-weighting them hard.
	n := float64(len(articles))
	for term, df := range docFreq {
		ix.idf[term] = math.Log(1+n/float64(1+df)) + 1
	}

	ix.docs = make([]document, len(articles))
	for i, a := range articles {
		vec := make(map[string]float64, len(termFreqs[i]))
		var sumSq float64
		for term, count := range termFreqs[i] {
			w := float64(count) * ix.idf[term]
			vec[term] = w
			sumSq += w * w
		}
		ix.docs[i] = document{article: a, vector: vec, norm: math.Sqrt(sumSq)}
		ix.byID[a.ID] = i
	}
	return ix
}

// documentText is the text a vector is built from: title, summary and
// topics. Body text is deliberately excluded; it drowns the signal of
// short, well-curated fields under boilerplate prose.
func documentText(a *models.Article) string {
	parts := []string{a.Title, a.Summary}
	parts = append(parts, a.Topics...)
	return strings.Join(parts, " ")
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		term := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(term) < 2 || stopWords[term] {
			continue
		}
		counts[term]++
	}
	return counts
}

func cosine(a, b document) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	// Iterate the smaller vector.
	small, large := a.vector, b.vector
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for term, wa := range small {
		if wb, ok := large[term]; ok {
			dot += wa * wb
		}
	}
	return dot / (a.norm * b.norm)
}

// Similar returns the top-k articles most similar to the target, highest
// score first, each with a human-readable reason. The target itself and
// exact ties at score 0 with a different category are excluded. Returns
// nil when the target is not in the index.
func (ix *Index) Similar(targetID string, k int) []models.Recommendation {
	ti, ok := ix.byID[targetID]
	if !ok {
		return nil
	}
	target := ix.docs[ti]

	recs := make([]models.Recommendation, 0, len(ix.docs)-1)
	for i, doc := range ix.docs {
		if i == ti {
			continue
		}
		score := cosine(target, doc)
		if score == 0 && doc.article.Category != target.article.Category {
			continue
		}
		recs = append(recs, models.Recommendation{
			Article: doc.article,
			Score:   score,
			Reason:  reason(score, target.article, doc.article),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if k > 0 && len(recs) > k {
		recs = recs[:k]
	}
	return recs
}

func reason(score float64, target, other *models.Article) string {
	switch {
	case score > highBand:
		return "highly similar"
	case score > relatedBand:
		return "related topic"
	case other.Category != "" && other.Category == target.Category:
		return "same category: " + other.Category
	default:
		return "you might also like"
	}
}

// Duplicates reports article pairs whose content similarity is at or
// above threshold, sorted by score descending. A simhash Hamming-distance
// prefilter skips pairs that cannot plausibly be duplicates, so the
// cosine pass only runs on near misses. threshold <= 0 selects
// DefaultDuplicateThreshold.
func (ix *Index) Duplicates(threshold float64) []models.DuplicatePair {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	var pairs []models.DuplicatePair
	for i := 0; i < len(ix.docs); i++ {
		for j := i + 1; j < len(ix.docs); j++ {
			a, b := ix.docs[i], ix.docs[j]
			if skipBySimhash(a.article, b.article) {
				continue
			}
			score := cosine(a, b)
			if score >= threshold {
				pairs = append(pairs, models.DuplicatePair{
					A:     a.article,
					B:     b.article,
					Score: score,
				})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs
}

// skipBySimhash rejects a pair when both fingerprints exist and disagree
// in more than maxHammingPrefilter bits. A zero fingerprint means the
// article was saved before hashing existed, so the pair falls through to
// the cosine check.
func skipBySimhash(a, b *models.Article) bool {
	if a.SimHash == 0 || b.SimHash == 0 {
		return false
	}
	return simhash.Distance(a.SimHash, b.SimHash) > maxHammingPrefilter
}

// stopWords mirrors the analyzer's fallback list so vectors and tags
// agree on what carries meaning.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "they": true, "them": true, "their": true, "we": true,
	"you": true, "your": true, "he": true, "she": true, "his": true, "her": true,
	"not": true, "no": true, "so": true, "if": true, "then": true, "than": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"how": true, "why": true, "all": true, "each": true, "more": true,
	"most": true, "other": true, "some": true, "such": true, "only": true,
	"also": true, "into": true, "about": true, "after": true, "before": true,
	"between": true, "through": true, "during": true, "just": true, "very": true,
}
