package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
	"github.com/kri-ruj/linksaver/store"
	"github.com/kri-ruj/linksaver/urls"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(config.StoreConfig{
		Path:       filepath.Join(t.TempDir(), "test.db"),
		DedupScope: "owner",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedArticle(t *testing.T, st *store.Store, owner, title, summary, category string) *models.Article {
	t.Helper()
	url := "https://example.com/" + uuid.NewString()
	now := time.Now().UTC()
	a := &models.Article{
		ID:             uuid.NewString(),
		OwnerID:        owner,
		URL:            url,
		URLFingerprint: urls.Fingerprint(url),
		Title:          title,
		Summary:        summary,
		Category:       category,
		Stage:          models.StageInbox,
		SavedAt:        now,
		StageUpdatedAt: now,
		Priority:       models.PriorityMedium,
	}
	out := st.SaveArticle(context.Background(), a)
	if out.Kind != models.SaveCreated {
		t.Fatalf("seed outcome = %s: %v", out.Kind, out.Err)
	}
	return out.Article
}

func apiRouter(st *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/articles", ListArticles(st))
	r.GET("/articles/:id", GetArticle(st))
	r.POST("/articles/:id/stage", UpdateStage(st))
	r.POST("/articles/:id/notes", UpdateNotes(st))
	r.POST("/articles/:id/archive", Archive(st))
	r.GET("/articles/:id/similar", Similar(st))
	r.GET("/duplicates", Duplicates(st))
	r.GET("/stats", Stats(st))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return v
}

func TestListArticles_FiltersByOwnerAndStage(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)

	a := seedArticle(t, st, "U1", "First", "", "Programming")
	seedArticle(t, st, "U1", "Second", "", "General")
	seedArticle(t, st, "U2", "Other owner", "", "General")

	if err := st.UpdateStage(context.Background(), a.ID, models.StageReading); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/articles?owner=U1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.ArticleListResponse](t, w)
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}

	w = doJSON(t, r, http.MethodGet, "/articles?owner=U1&stage=reading", "")
	resp = decode[models.ArticleListResponse](t, w)
	if resp.Count != 1 || resp.Articles[0].ID != a.ID {
		t.Fatalf("stage filter returned %d articles", resp.Count)
	}
}

func TestListArticles_RejectsUnknownStage(t *testing.T) {
	r := apiRouter(newTestStore(t))
	if w := doJSON(t, r, http.MethodGet, "/articles?stage=backlog", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	r := apiRouter(newTestStore(t))
	w := doJSON(t, r, http.MethodGet, "/articles/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := decode[models.ErrorResponse](t, w)
	if resp.Error == nil || resp.Error.Code != models.ErrCodeNotFound {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestUpdateStage_MovesAndStampsCompletion(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)
	a := seedArticle(t, st, "U1", "To finish", "", "General")

	w := doJSON(t, r, http.MethodPost, "/articles/"+a.ID+"/stage", `{"stage":"completed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[models.ArticleResponse](t, w)
	if resp.Article.Stage != models.StageCompleted {
		t.Errorf("stage = %s", resp.Article.Stage)
	}
	if resp.Article.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
}

func TestUpdateStage_RejectsUnknownStage(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)
	a := seedArticle(t, st, "U1", "Article", "", "General")

	w := doJSON(t, r, http.MethodPost, "/articles/"+a.ID+"/stage", `{"stage":"limbo"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUpdateNotes_RoundTrips(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)
	a := seedArticle(t, st, "U1", "Article", "", "General")

	w := doJSON(t, r, http.MethodPost, "/articles/"+a.ID+"/notes", `{"notes":"re-read section 3"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.ArticleResponse](t, w)
	if resp.Article.StudyNotes != "re-read section 3" {
		t.Errorf("notes = %q", resp.Article.StudyNotes)
	}
}

func TestArchive_HidesFromDefaultList(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)
	a := seedArticle(t, st, "U1", "Old", "", "General")

	w := doJSON(t, r, http.MethodPost, "/articles/"+a.ID+"/archive", `{"archived":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	resp := decode[models.ArticleListResponse](t, doJSON(t, r, http.MethodGet, "/articles?owner=U1", ""))
	if resp.Count != 0 {
		t.Fatalf("archived article still listed (count=%d)", resp.Count)
	}

	resp = decode[models.ArticleListResponse](t, doJSON(t, r, http.MethodGet, "/articles?owner=U1&include_archived=true", ""))
	if resp.Count != 1 {
		t.Fatalf("include_archived did not surface the article")
	}
}

func TestSimilar_ReturnsNeighbours(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)

	target := seedArticle(t, st, "U1",
		"Understanding Go channels and goroutines",
		"A deep dive into Go concurrency with channels and goroutines.", "Programming")
	seedArticle(t, st, "U1",
		"Go concurrency patterns with channels",
		"Practical patterns for Go channels, goroutines and worker pools.", "Programming")
	seedArticle(t, st, "U1", "Weeknight pasta recipes", "Quick pasta dishes.", "General")

	w := doJSON(t, r, http.MethodGet, "/articles/"+target.ID+"/similar?k=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[models.RecommendResponse](t, w)
	if len(resp.Recommendations) == 0 {
		t.Fatal("no recommendations")
	}
	if !strings.Contains(resp.Recommendations[0].Article.Title, "concurrency patterns") {
		t.Errorf("top recommendation = %q", resp.Recommendations[0].Article.Title)
	}
}

func TestSimilar_UnknownTarget404(t *testing.T) {
	r := apiRouter(newTestStore(t))
	if w := doJSON(t, r, http.MethodGet, "/articles/nope/similar", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDuplicates_ReportsContentTwins(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)

	seedArticle(t, st, "U1", "Understanding Go channels in depth",
		"A deep dive into Go concurrency with channels and goroutines.", "Programming")
	seedArticle(t, st, "U1", "Understanding Go channels in depth",
		"A deep dive into Go concurrency with channels and goroutines.", "Programming")
	seedArticle(t, st, "U1", "Weeknight pasta recipes", "Quick pasta dishes.", "General")

	w := doJSON(t, r, http.MethodGet, "/duplicates?owner=U1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.DuplicatesResponse](t, w)
	if len(resp.Pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(resp.Pairs))
	}
}

func TestDuplicates_RejectsBadThreshold(t *testing.T) {
	r := apiRouter(newTestStore(t))
	if w := doJSON(t, r, http.MethodGet, "/duplicates?threshold=2", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStats_Aggregates(t *testing.T) {
	st := newTestStore(t)
	r := apiRouter(st)

	a := seedArticle(t, st, "U1", "One", "", "Programming")
	seedArticle(t, st, "U1", "Two", "", "General")
	if err := st.UpdateStage(context.Background(), a.ID, models.StageCompleted); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/stats?owner=U1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[models.StatsResponse](t, w)
	if resp.Stats.Total != 2 {
		t.Errorf("total = %d", resp.Stats.Total)
	}
	if resp.Stats.ByStage["completed"] != 1 {
		t.Errorf("by_stage = %v", resp.Stats.ByStage)
	}
	if resp.Stats.CompletedLast7d != 1 {
		t.Errorf("completed_last_7d = %d", resp.Stats.CompletedLast7d)
	}
}
