package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
)

func newTestStore(t *testing.T, scope string) *Store {
	t.Helper()
	s, err := Open(config.StoreConfig{
		Path:       filepath.Join(t.TempDir(), "test.db"),
		DedupScope: scope,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testArticle(ownerID, url string) *models.Article {
	now := time.Now().UTC()
	return &models.Article{
		ID:                 uuid.NewString(),
		OwnerID:            ownerID,
		URL:                url,
		URLFingerprint:     "fp-" + url,
		Title:              "Test Article",
		Summary:            "A short summary.",
		Category:           "Programming",
		Tags:               []string{"#golang", "#testing"},
		WordCount:          400,
		ReadingTimeMinutes: 2,
		PriorityScore:      65,
		SavedAt:            now,
		Stage:              models.StageInbox,
		StageUpdatedAt:     now,
		Priority:           models.PriorityMedium,
		AnalysisSource:     "fallback",
	}
}

func TestSaveArticle_CreatedThenDuplicate(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	first := testArticle("U123", "https://example.com/post")
	outcome := s.SaveArticle(ctx, first)
	if outcome.Kind != models.SaveCreated {
		t.Fatalf("first save outcome = %v (err %v), want created", outcome.Kind, outcome.Err)
	}

	second := testArticle("U123", "https://example.com/post")
	outcome = s.SaveArticle(ctx, second)
	if outcome.Kind != models.SaveDuplicate {
		t.Fatalf("second save outcome = %v, want duplicate", outcome.Kind)
	}
	if outcome.Article.ID != first.ID {
		t.Errorf("duplicate outcome references %q, want original %q", outcome.Article.ID, first.ID)
	}

	articles, err := s.List(ctx, ListFilter{OwnerID: "U123"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("row count = %d, want exactly 1", len(articles))
	}
}

func TestSaveArticle_OwnerScope_SeparatesOwners(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	if out := s.SaveArticle(ctx, testArticle("U1", "https://example.com/a")); out.Kind != models.SaveCreated {
		t.Fatalf("U1 save = %v", out.Kind)
	}
	if out := s.SaveArticle(ctx, testArticle("U2", "https://example.com/a")); out.Kind != models.SaveCreated {
		t.Errorf("U2 save = %v, want created under owner scope", out.Kind)
	}
}

func TestSaveArticle_GlobalScope_DedupsAcrossOwners(t *testing.T) {
	s := newTestStore(t, "global")
	ctx := context.Background()

	if out := s.SaveArticle(ctx, testArticle("U1", "https://example.com/a")); out.Kind != models.SaveCreated {
		t.Fatalf("U1 save = %v", out.Kind)
	}
	if out := s.SaveArticle(ctx, testArticle("U2", "https://example.com/a")); out.Kind != models.SaveDuplicate {
		t.Errorf("U2 save = %v, want duplicate under global scope", out.Kind)
	}
}

func TestUpdateStage_CompletedAtSetOnce(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	a := testArticle("U123", "https://example.com/post")
	if out := s.SaveArticle(ctx, a); out.Kind != models.SaveCreated {
		t.Fatalf("save: %v", out.Err)
	}

	if err := s.UpdateStage(ctx, a.ID, models.StageCompleted); err != nil {
		t.Fatalf("update stage: %v", err)
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != models.StageCompleted {
		t.Errorf("stage = %q, want completed", got.Stage)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at not set on transition into completed")
	}
	firstCompleted := *got.CompletedAt

	time.Sleep(10 * time.Millisecond)

	// Re-completing must not move completed_at.
	if err := s.UpdateStage(ctx, a.ID, models.StageCompleted); err != nil {
		t.Fatalf("re-update stage: %v", err)
	}
	got, err = s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CompletedAt.Equal(firstCompleted) {
		t.Errorf("completed_at moved on no-op transition: %v → %v", firstCompleted, got.CompletedAt)
	}
}

func TestUpdateStage_RefreshesStageUpdatedAt(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	a := testArticle("U123", "https://example.com/post")
	s.SaveArticle(ctx, a)

	before, _ := s.Get(ctx, a.ID)
	time.Sleep(10 * time.Millisecond)

	if err := s.UpdateStage(ctx, a.ID, models.StageReading); err != nil {
		t.Fatalf("update stage: %v", err)
	}
	after, _ := s.Get(ctx, a.ID)

	if !after.StageUpdatedAt.After(before.StageUpdatedAt) {
		t.Errorf("stage_updated_at not refreshed: %v → %v", before.StageUpdatedAt, after.StageUpdatedAt)
	}
	if after.CompletedAt != nil {
		t.Error("completed_at must stay unset for non-completed stages")
	}
}

func TestUpdateStage_RejectsUnknownStage(t *testing.T) {
	s := newTestStore(t, "owner")
	err := s.UpdateStage(context.Background(), "some-id", models.Stage("bogus"))
	if err == nil {
		t.Fatal("unknown stage must be rejected")
	}
	var pe *models.PipelineError
	if !errors.As(err, &pe) || pe.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestUpdateStage_NotFound(t *testing.T) {
	s := newTestStore(t, "owner")
	err := s.UpdateStage(context.Background(), "missing", models.StageReading)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateNotesAndArchive(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	a := testArticle("U123", "https://example.com/post")
	s.SaveArticle(ctx, a)

	if err := s.UpdateNotes(ctx, a.ID, "re-read the scheduler section"); err != nil {
		t.Fatalf("update notes: %v", err)
	}
	if err := s.SetArchived(ctx, a.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StudyNotes != "re-read the scheduler section" {
		t.Errorf("notes = %q", got.StudyNotes)
	}
	if !got.IsArchived {
		t.Error("article should be archived")
	}

	// Archived records drop out of default listings but are never deleted.
	visible, _ := s.List(ctx, ListFilter{OwnerID: "U123"})
	if len(visible) != 0 {
		t.Errorf("archived article still visible in default list: %d rows", len(visible))
	}
	all, _ := s.List(ctx, ListFilter{OwnerID: "U123", IncludeArchived: true})
	if len(all) != 1 {
		t.Errorf("archived article missing from unfiltered list: %d rows", len(all))
	}
}

func TestList_StageFilterAndOrder(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	old := testArticle("U123", "https://example.com/old")
	old.SavedAt = time.Now().UTC().Add(-time.Hour)
	s.SaveArticle(ctx, old)

	recent := testArticle("U123", "https://example.com/new")
	s.SaveArticle(ctx, recent)
	s.UpdateStage(ctx, recent.ID, models.StageReading)

	inbox, err := s.List(ctx, ListFilter{OwnerID: "U123", Stage: models.StageInbox})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != old.ID {
		t.Errorf("stage filter returned wrong rows: %d", len(inbox))
	}

	all, _ := s.List(ctx, ListFilter{OwnerID: "U123"})
	if len(all) != 2 {
		t.Fatalf("list all = %d rows", len(all))
	}
	if all[0].ID != recent.ID {
		t.Error("list should be newest-first")
	}
}

func TestSaveArticle_RoundTripsAnalysisFields(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	published := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	a := testArticle("U123", "https://example.com/post")
	a.Topics = []string{"concurrency", "runtime"}
	a.People = []string{"Rob Pike"}
	a.Sentiment = &models.Sentiment{Label: "positive", Score: 0.6}
	a.ComplexityLevel = models.ComplexityAdvanced
	a.PublishedAt = &published
	a.SimHash = 0xDEADBEEF

	s.SaveArticle(ctx, a)
	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Sentiment == nil || got.Sentiment.Score != 0.6 {
		t.Errorf("sentiment = %+v", got.Sentiment)
	}
	if got.Sentiment.Score < -1 || got.Sentiment.Score > 1 {
		t.Errorf("sentiment score %f out of bounds", got.Sentiment.Score)
	}
	if len(got.Topics) != 2 || got.Topics[0] != "concurrency" {
		t.Errorf("topics = %v", got.Topics)
	}
	if len(got.People) != 1 || got.People[0] != "Rob Pike" {
		t.Errorf("people = %v", got.People)
	}
	if got.ComplexityLevel != models.ComplexityAdvanced {
		t.Errorf("complexity = %q", got.ComplexityLevel)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Errorf("published_at = %v", got.PublishedAt)
	}
	if got.SimHash != 0xDEADBEEF {
		t.Errorf("simhash = %x", got.SimHash)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t, "owner")
	ctx := context.Background()

	a := testArticle("U123", "https://example.com/a")
	a.PriorityScore = 85
	s.SaveArticle(ctx, a)

	b := testArticle("U123", "https://example.com/b")
	b.Category = "AI/ML"
	b.PriorityScore = 50
	s.SaveArticle(ctx, b)
	s.UpdateStage(ctx, b.ID, models.StageCompleted)

	stats, err := s.Stats(ctx, "U123")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.ByStage["inbox"] != 1 || stats.ByStage["completed"] != 1 {
		t.Errorf("by stage = %v", stats.ByStage)
	}
	if stats.ByCategory["Programming"] != 1 || stats.ByCategory["AI/ML"] != 1 {
		t.Errorf("by category = %v", stats.ByCategory)
	}
	if stats.CompletedLast7d != 1 {
		t.Errorf("velocity = %d, want 1", stats.CompletedLast7d)
	}
	if stats.QualityTiers["High"] != 1 || stats.QualityTiers["Low"] != 1 {
		t.Errorf("quality tiers = %v", stats.QualityTiers)
	}
	if stats.CompletionRate != 0.5 {
		t.Errorf("completion rate = %f, want 0.5", stats.CompletionRate)
	}
	if stats.AvgReadingMinutes <= 0 {
		t.Errorf("avg reading minutes = %f", stats.AvgReadingMinutes)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t, "owner")
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
