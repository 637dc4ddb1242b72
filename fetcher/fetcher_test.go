package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
)

func testConfig() config.FetcherConfig {
	return config.FetcherConfig{
		Timeout:       5 * time.Second,
		MaxBodyBytes:  10 * 1024 * 1024,
		MaxTextChars:  8000,
		MaxParagraphs: 80,
	}
}

const articleHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Fallback Title</title>
	<meta property="og:title" content="How Go Schedules Goroutines">
	<meta name="description" content="A look inside the runtime scheduler.">
	<meta name="author" content="Jane Writer">
	<meta property="article:published_time" content="2024-03-15T09:00:00Z">
	<script>var tracking = "should never appear";</script>
	<style>.ad { display: none }</style>
</head>
<body>
	<nav>Home About Contact</nav>
	<article>
		<h1>How Go Schedules Goroutines</h1>
		<p>The Go runtime multiplexes goroutines onto operating system threads using a work-stealing scheduler.</p>
		<p>Each processor owns a local run queue, and idle processors steal work from busy ones to keep every core occupied.</p>
		<p>Blocking system calls hand the processor to another thread so the rest of the program keeps running smoothly.</p>
	</article>
	<footer>Copyright</footer>
</body>
</html>`

func TestFetch_ExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := New(testConfig())
	result := f.Fetch(context.Background(), srv.URL+"/posts/go-scheduler")

	if result.Degraded {
		t.Fatal("expected a non-degraded result")
	}
	if result.Title != "How Go Schedules Goroutines" {
		t.Errorf("title = %q, want og:title value", result.Title)
	}
	if !strings.Contains(result.BodyText, "work-stealing scheduler") {
		t.Errorf("body text missing article content: %q", result.BodyText)
	}
	if strings.Contains(result.BodyText, "should never appear") {
		t.Error("script content leaked into body text")
	}
	if result.WordCount == 0 {
		t.Error("word count should be non-zero for a real article")
	}
	if result.Author != "Jane Writer" {
		t.Errorf("author = %q, want %q", result.Author, "Jane Writer")
	}
	if result.PublishedAt == nil || result.PublishedAt.Year() != 2024 {
		t.Errorf("published_at = %v, want 2024 date", result.PublishedAt)
	}
}

func TestFetch_ServerError_FailSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(testConfig())
	result := f.Fetch(context.Background(), srv.URL+"/articles/broken-page")

	if !result.Degraded {
		t.Fatal("expected a degraded result for HTTP 500")
	}
	if result.WordCount != 0 {
		t.Errorf("word count = %d, want 0", result.WordCount)
	}
	if result.Title == "" {
		t.Error("degraded result must still carry a title")
	}
	if result.Title != "broken page" {
		t.Errorf("title = %q, want URL-derived %q", result.Title, "broken page")
	}
}

func TestFetch_UnreachableHost_FailSoft(t *testing.T) {
	f := New(testConfig())
	result := f.Fetch(context.Background(), "http://127.0.0.1:1/no-route")

	if !result.Degraded {
		t.Fatal("expected a degraded result for an unreachable host")
	}
	if result.WordCount != 0 {
		t.Errorf("word count = %d, want 0", result.WordCount)
	}
	if result.Title == "" {
		t.Error("degraded result must still carry a title")
	}
}

func TestFetch_ParagraphFallback(t *testing.T) {
	// No article/main container and too little text for readability:
	// the <p> concatenation path must kick in.
	page := `<html><head><title>Plain Page</title></head><body>
		<div><p>First paragraph of loose text sitting outside any semantic container element.</p></div>
		<div><p>Second paragraph that should also be collected by the fallback extractor here.</p></div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := New(testConfig())
	result := f.Fetch(context.Background(), srv.URL)

	if !strings.Contains(result.BodyText, "First paragraph") || !strings.Contains(result.BodyText, "Second paragraph") {
		t.Errorf("paragraph fallback missed content: %q", result.BodyText)
	}
	if result.Title != "Plain Page" {
		t.Errorf("title = %q, want <title> fallback", result.Title)
	}
}

func TestFetch_TruncatesLongBody(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod ", 400)
	page := "<html><body><article><p>" + long + "</p></article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxTextChars = 500
	f := New(cfg)
	result := f.Fetch(context.Background(), srv.URL)

	if len([]rune(result.BodyText)) > 500 {
		t.Errorf("body text length = %d runes, want <= 500", len([]rune(result.BodyText)))
	}
}

func TestTitleFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/posts/my-great-post", "my great post"},
		{"https://example.com/posts/my_great_post.html", "my great post"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
	}
	for _, tt := range tests {
		if got := titleFromURL(tt.in); got != tt.want {
			t.Errorf("titleFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadingTimeDerivation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{199, 1},
		{200, 1},
		{399, 1},
		{400, 2},
		{2000, 10},
	}
	for _, tt := range tests {
		r := &models.FetchResult{WordCount: tt.words}
		if got := r.ReadingTimeMinutes(); got != tt.want {
			t.Errorf("ReadingTimeMinutes(words=%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}
