package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/kri-ruj/linksaver/models"
)

var articleColumns = []string{
	"id", "owner_id", "url", "url_fingerprint",
	"title", "raw_text", "body_markdown", "summary",
	"category", "subcategory", "topics", "tags",
	"sentiment_label", "sentiment_score", "complexity_level",
	"people", "organizations", "locations", "technologies",
	"key_points", "action_items",
	"word_count", "reading_time_minutes", "priority_score", "simhash",
	"author", "published_at", "saved_at",
	"stage", "stage_updated_at", "completed_at",
	"priority", "study_notes", "is_archived", "analysis_source",
}

// SaveArticle inserts the article unless a record with the same dedup key
// already exists. The insert-or-get is a single ON CONFLICT DO NOTHING
// statement followed by a read, so concurrent saves of the same URL settle
// on exactly one record. Persistence failures are returned as a SaveError
// outcome, never raised — the pipeline always owes the user a reply.
func (s *Store) SaveArticle(ctx context.Context, a *models.Article) models.SaveOutcome {
	key := s.scopeKey(a.OwnerID, a.URLFingerprint)

	var sentimentLabel, sentimentScore any
	if a.Sentiment != nil {
		sentimentLabel = a.Sentiment.Label
		sentimentScore = a.Sentiment.Score
	}

	res, err := s.builder().
		Insert("articles").
		Columns(
			"id", "owner_id", "url", "url_fingerprint", "scope_key",
			"title", "raw_text", "body_markdown", "summary",
			"category", "subcategory", "topics", "tags",
			"sentiment_label", "sentiment_score", "complexity_level",
			"people", "organizations", "locations", "technologies",
			"key_points", "action_items",
			"word_count", "reading_time_minutes", "priority_score", "simhash",
			"author", "published_at", "saved_at",
			"stage", "stage_updated_at", "completed_at",
			"priority", "study_notes", "is_archived", "analysis_source",
		).
		Values(
			a.ID, a.OwnerID, a.URL, a.URLFingerprint, key,
			a.Title, a.RawText, a.BodyMarkdown, a.Summary,
			a.Category, a.Subcategory, jsonList(a.Topics), jsonList(a.Tags),
			sentimentLabel, sentimentScore, string(a.ComplexityLevel),
			jsonList(a.People), jsonList(a.Organizations), jsonList(a.Locations), jsonList(a.Technologies),
			jsonList(a.KeyPoints), jsonList(a.ActionItems),
			a.WordCount, a.ReadingTimeMinutes, a.PriorityScore, int64(a.SimHash),
			a.Author, a.PublishedAt, a.SavedAt,
			string(a.Stage), a.StageUpdatedAt, a.CompletedAt,
			string(a.Priority), a.StudyNotes, a.IsArchived, a.AnalysisSource,
		).
		Suffix("ON CONFLICT(scope_key) DO NOTHING").
		ExecContext(ctx)
	if err != nil {
		return models.SaveOutcome{Kind: models.SaveError, Err: fmt.Errorf("insert article: %w", err)}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.SaveOutcome{Kind: models.SaveError, Err: fmt.Errorf("rows affected: %w", err)}
	}

	if affected == 1 {
		return models.SaveOutcome{Kind: models.SaveCreated, Article: a}
	}

	// Conflict: somebody (possibly a webhook redelivery) saved this URL
	// first. Return the existing record untouched — no overwrite,
	// no re-analysis.
	existing, err := s.getBy(ctx, sq.Eq{"scope_key": key})
	if err != nil {
		return models.SaveOutcome{Kind: models.SaveError, Err: fmt.Errorf("load existing article: %w", err)}
	}
	return models.SaveOutcome{Kind: models.SaveDuplicate, Article: existing}
}

// ErrNotFound is returned when an article lookup matches nothing.
var ErrNotFound = errors.New("article not found")

// Get loads one article by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Article, error) {
	return s.getBy(ctx, sq.Eq{"id": id})
}

func (s *Store) getBy(ctx context.Context, pred any) (*models.Article, error) {
	row := s.builder().
		Select(articleColumns...).
		From("articles").
		Where(pred).
		QueryRowContext(ctx)
	return scanArticle(row)
}

// UpdateStage moves an article to a new lifecycle stage.
//
// stage_updated_at is refreshed on every call, including no-op transitions.
// completed_at is set only on the first transition into completed; the CASE
// guard keeps a repeated completed → completed update from moving it.
func (s *Store) UpdateStage(ctx context.Context, id string, stage models.Stage) error {
	if !models.ValidStage(stage) {
		return models.NewPipelineError(models.ErrCodeInvalidInput, fmt.Sprintf("unknown stage %q", stage), nil)
	}

	now := time.Now().UTC()
	res, err := s.builder().
		Update("articles").
		Set("stage", string(stage)).
		Set("stage_updated_at", now).
		Set("completed_at", sq.Expr(
			"CASE WHEN ? = 'completed' AND completed_at IS NULL THEN ? ELSE completed_at END",
			string(stage), now,
		)).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return requireRow(res)
}

// UpdateNotes replaces the free-text study notes on an article.
func (s *Store) UpdateNotes(ctx context.Context, id string, notes string) error {
	res, err := s.builder().
		Update("articles").
		Set("study_notes", notes).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	return requireRow(res)
}

// SetArchived soft-deletes (or restores) an article. Archived records are
// kept forever; there is no hard delete.
func (s *Store) SetArchived(ctx context.Context, id string, archived bool) error {
	res, err := s.builder().
		Update("articles").
		Set("is_archived", archived).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	OwnerID         string
	Stage           models.Stage
	IncludeArchived bool
	Limit           uint64
}

// List returns articles newest-first, honoring the filter.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*models.Article, error) {
	q := s.builder().
		Select(articleColumns...).
		From("articles").
		OrderBy("saved_at DESC")

	if f.OwnerID != "" {
		q = q.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	if f.Stage != "" {
		q = q.Where(sq.Eq{"stage": string(f.Stage)})
	}
	if !f.IncludeArchived {
		q = q.Where(sq.Eq{"is_archived": false})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// LogIngest records one pipeline run for the dashboard activity view.
// Logging failures are reported to the caller but are not fatal upstream.
func (s *Store) LogIngest(ctx context.Context, rec models.IngestRecord) error {
	_, err := s.builder().
		Insert("ingest_log").
		Columns("owner_id", "url", "outcome", "degraded", "analysis_source", "duration_ms").
		Values(rec.OwnerID, rec.URL, rec.Outcome, rec.Degraded, rec.AnalysisSource, rec.DurationMs).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("log ingest: %w", err)
	}
	return nil
}

// --- row scanning ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a                              models.Article
		topics, tags                   string
		people, orgs, locations, techs string
		keyPoints, actionItems         string
		sentimentLabel                 sql.NullString
		sentimentScore                 sql.NullFloat64
		complexity, stage, priority    string
		simhash                        int64
		publishedAt, completedAt       sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.OwnerID, &a.URL, &a.URLFingerprint,
		&a.Title, &a.RawText, &a.BodyMarkdown, &a.Summary,
		&a.Category, &a.Subcategory, &topics, &tags,
		&sentimentLabel, &sentimentScore, &complexity,
		&people, &orgs, &locations, &techs,
		&keyPoints, &actionItems,
		&a.WordCount, &a.ReadingTimeMinutes, &a.PriorityScore, &simhash,
		&a.Author, &publishedAt, &a.SavedAt,
		&stage, &a.StageUpdatedAt, &completedAt,
		&priority, &a.StudyNotes, &a.IsArchived, &a.AnalysisSource,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}

	a.Topics = parseList(topics)
	a.Tags = parseList(tags)
	a.People = parseList(people)
	a.Organizations = parseList(orgs)
	a.Locations = parseList(locations)
	a.Technologies = parseList(techs)
	a.KeyPoints = parseList(keyPoints)
	a.ActionItems = parseList(actionItems)
	a.ComplexityLevel = models.Complexity(complexity)
	a.Stage = models.Stage(stage)
	a.Priority = models.Priority(priority)
	a.SimHash = uint64(simhash)

	if sentimentLabel.Valid {
		a.Sentiment = &models.Sentiment{Label: sentimentLabel.String, Score: sentimentScore.Float64}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}

	return &a, nil
}

// jsonList serializes a string slice for a TEXT column; nil becomes "[]".
func jsonList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func parseList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
