// Package pipeline orchestrates the ingestion flow for one chat message:
// extract URLs → fetch → analyze → save → reply.
//
// Every stage is fail-soft except persistence, whose error outcome still
// produces a user-visible apology. The user always gets a reply for any
// message containing a URL, and a help message otherwise.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kri-ruj/linksaver/cache"
	"github.com/kri-ruj/linksaver/line"
	"github.com/kri-ruj/linksaver/metrics"
	"github.com/kri-ruj/linksaver/models"
	"github.com/kri-ruj/linksaver/simhash"
	"github.com/kri-ruj/linksaver/urls"
)

// Fetcher retrieves a page fail-soft.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *models.FetchResult
}

// Analyzer produces an Analysis for extracted content.
type Analyzer interface {
	Analyze(ctx context.Context, title, bodyText, url string, publishedAt *time.Time) *models.Analysis
}

// Saver persists articles and the ingest log.
type Saver interface {
	SaveArticle(ctx context.Context, a *models.Article) models.SaveOutcome
	LogIngest(ctx context.Context, rec models.IngestRecord) error
}

// Replier sends messages back to the originating chat.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.TextMessage) error
}

// Pipeline wires the ingestion components together.
type Pipeline struct {
	fetcher  Fetcher
	analyzer Analyzer
	saver    Saver
	replier  Replier
	cache    *cache.Cache
	metrics  *metrics.Metrics
}

// New creates a Pipeline. cache and m may be nil (caching and
// instrumentation are then skipped), which keeps test wiring small.
func New(f Fetcher, a Analyzer, s Saver, r Replier, c *cache.Cache, m *metrics.Metrics) *Pipeline {
	return &Pipeline{fetcher: f, analyzer: a, saver: s, replier: r, cache: c, metrics: m}
}

// HandleMessage processes one inbound text message end to end and sends a
// single reply covering every URL in it. A message with no URLs gets the
// help reply and touches neither the fetcher nor the store.
func (p *Pipeline) HandleMessage(ctx context.Context, ownerID, replyToken, text string) {
	found := urls.Extract(text)
	if len(found) == 0 {
		p.countReply("help")
		p.reply(ctx, replyToken, line.ComposeHelp())
		return
	}

	var parts []string
	for _, u := range found {
		parts = append(parts, p.ingestOne(ctx, ownerID, u))
	}

	p.reply(ctx, replyToken, strings.Join(parts, "\n\n"))
}

// ingestOne runs fetch → analyze → save for a single URL and returns the
// reply text for it.
func (p *Pipeline) ingestOne(ctx context.Context, ownerID, url string) string {
	start := time.Now()
	fingerprint := urls.Fingerprint(url)

	result, cached := p.cachedFetch(ctx, fingerprint, url)
	if result.Degraded && p.metrics != nil {
		p.metrics.FetchDegraded.Inc()
	}

	analysis := p.analyzer.Analyze(ctx, result.Title, result.BodyText, url, result.PublishedAt)
	if p.metrics != nil {
		p.metrics.AnalysisBySource.WithLabelValues(analysis.Source).Inc()
	}

	article := buildArticle(ownerID, url, fingerprint, result, analysis)
	outcome := p.saver.SaveArticle(ctx, article)

	duration := time.Since(start)
	p.observe(outcome, duration)
	p.logIngest(ctx, ownerID, url, result, analysis, outcome, duration)

	switch outcome.Kind {
	case models.SaveCreated:
		slog.Info("article saved",
			"owner", ownerID, "url", url, "category", article.Category,
			"degraded", result.Degraded, "cached_fetch", cached,
			"analysis", analysis.Source, "duration_ms", duration.Milliseconds())
		p.countReply("created")
		return line.ComposeCreated(outcome.Article)

	case models.SaveDuplicate:
		slog.Info("duplicate save", "owner", ownerID, "url", url, "existing_id", outcome.Article.ID)
		p.countReply("duplicate")
		return line.ComposeDuplicate(outcome.Article)

	default:
		// Full details stay in the server log; the user-facing text
		// carries only a generic reason.
		slog.Error("article save failed", "owner", ownerID, "url", url, "error", outcome.Err)
		p.countReply("error")
		return line.ComposeError(url, "storage trouble")
	}
}

func (p *Pipeline) cachedFetch(ctx context.Context, fingerprint, url string) (*models.FetchResult, bool) {
	if p.cache != nil {
		if hit, ok := p.cache.Get(fingerprint); ok {
			return hit, true
		}
	}
	result := p.fetcher.Fetch(ctx, url)
	if p.cache != nil {
		p.cache.Set(fingerprint, result)
	}
	return result, false
}

func buildArticle(ownerID, url, fingerprint string, result *models.FetchResult, analysis *models.Analysis) *models.Article {
	now := time.Now().UTC()

	return &models.Article{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		URL:            url,
		URLFingerprint: fingerprint,

		Title:        result.Title,
		RawText:      result.BodyText,
		BodyMarkdown: result.BodyMarkdown,
		Summary:      analysis.Summary,

		Category:        analysis.Category,
		Subcategory:     analysis.Subcategory,
		Topics:          analysis.Topics,
		Tags:            analysis.Tags,
		Sentiment:       analysis.Sentiment,
		ComplexityLevel: analysis.ComplexityLevel,

		People:        analysis.People,
		Organizations: analysis.Organizations,
		Locations:     analysis.Locations,
		Technologies:  analysis.Technologies,
		KeyPoints:     analysis.KeyPoints,
		ActionItems:   analysis.ActionItems,

		WordCount:          result.WordCount,
		ReadingTimeMinutes: result.ReadingTimeMinutes(),
		PriorityScore:      analysis.PriorityScore,
		SimHash:            simhash.Fingerprint(result.Title + " " + result.BodyText),

		Author:      result.Author,
		PublishedAt: result.PublishedAt,
		SavedAt:     now,

		Stage:          models.StageInbox,
		StageUpdatedAt: now,
		Priority:       models.PriorityMedium,
		AnalysisSource: analysis.Source,
	}
}

func (p *Pipeline) reply(ctx context.Context, replyToken, text string) {
	if replyToken == "" {
		return
	}
	if err := p.replier.Reply(ctx, replyToken, line.NewTextMessage(text)); err != nil {
		slog.Error("reply delivery failed", "error", err)
	}
}

func (p *Pipeline) observe(outcome models.SaveOutcome, duration time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.IngestTotal.WithLabelValues(string(outcome.Kind)).Inc()
	p.metrics.PipelineDuration.Observe(duration.Seconds())
}

func (p *Pipeline) countReply(kind string) {
	if p.metrics != nil {
		p.metrics.RepliesTotal.WithLabelValues(kind).Inc()
	}
}

func (p *Pipeline) logIngest(ctx context.Context, ownerID, url string, result *models.FetchResult, analysis *models.Analysis, outcome models.SaveOutcome, duration time.Duration) {
	err := p.saver.LogIngest(ctx, models.IngestRecord{
		OwnerID:        ownerID,
		URL:            url,
		Outcome:        string(outcome.Kind),
		Degraded:       result.Degraded,
		AnalysisSource: analysis.Source,
		DurationMs:     duration.Milliseconds(),
	})
	if err != nil {
		slog.Warn("ingest log write failed", "error", err)
	}
}
