// Package fetcher retrieves a page and extracts its readable content.
//
// Fetch never returns an error: any network or parse failure produces a
// degraded result with a URL-derived title, an empty body and WordCount 0.
// A save action must always yield some record rather than abort the
// user-facing flow.
package fetcher

import (
	"context"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
)

// minBodyChars is the minimum extracted-text length (in bytes) for a
// content strategy to be considered successful. Shorter output means the
// strategy found navigation chrome, not the article.
const minBodyChars = 100

// Fetcher turns a URL into a FetchResult via the cascade:
// readability → semantic containers → <p> concatenation.
type Fetcher struct {
	cfg         config.FetcherConfig
	http        *httpFetcher
	mdConverter *converter.Converter
}

// New creates a Fetcher with the given configuration.
func New(cfg config.FetcherConfig) *Fetcher {
	return &Fetcher{
		cfg:         cfg,
		http:        newHTTPFetcher(cfg.Proxy, cfg.MaxBodyBytes),
		mdConverter: newMarkdownConverter(),
	}
}

// Fetch retrieves and extracts the page at rawURL. Fail-soft: the returned
// result is always usable, with Degraded set when fetching or parsing broke.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *models.FetchResult {
	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	page, err := f.http.fetch(fetchCtx, rawURL)
	if err != nil {
		slog.Warn("fetch failed, returning degraded result", "url", rawURL, "error", err)
		return degradedResult(rawURL)
	}

	result, err := f.extract(rawURL, page)
	if err != nil {
		slog.Warn("extraction failed, returning degraded result", "url", rawURL, "error", err)
		return degradedResult(rawURL)
	}
	return result
}

func (f *Fetcher) extract(rawURL string, page *fetchedPage) (*models.FetchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page.body)))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	meta := extractMeta(doc)

	bodyText, contentHTML := f.extractContent(rawURL, string(page.body), doc)
	bodyText = truncateRunes(bodyText, f.cfg.MaxTextChars)

	result := &models.FetchResult{
		URL:         rawURL,
		FinalURL:    page.finalURL,
		StatusCode:  page.statusCode,
		Title:       meta.title,
		BodyText:    bodyText,
		Description: meta.description,
		Author:      meta.author,
		PublishedAt: meta.publishedAt,
		WordCount:   len(strings.Fields(bodyText)),
	}

	if result.Title == "" {
		result.Title = hostOf(rawURL)
	}

	if contentHTML != "" {
		if md, mdErr := toMarkdown(f.mdConverter, contentHTML, rawURL); mdErr == nil {
			result.BodyMarkdown = truncateRunes(strings.TrimSpace(md), f.cfg.MaxTextChars)
		}
	}

	return result, nil
}

// extractContent runs the body cascade: readability first, then the
// semantic-container selectors, then plain <p> concatenation.
func (f *Fetcher) extractContent(rawURL, rawHTML string, doc *goquery.Document) (string, string) {
	if parsedURL, err := nurl.Parse(rawURL); err == nil {
		article, rerr := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
		if rerr == nil {
			text := normalizeWhitespace(article.TextContent)
			if len(text) >= minBodyChars {
				return text, article.Content
			}
		}
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return normalizeWhitespace(doc.Text()), ""
	}
	return extractBody(root, doc, f.cfg.MaxParagraphs)
}

// degradedResult builds the fail-soft record for an unreachable or
// unparseable page. Title comes from the URL's last path segment, with the
// host as the final fallback.
func degradedResult(rawURL string) *models.FetchResult {
	return &models.FetchResult{
		URL:       rawURL,
		FinalURL:  rawURL,
		Title:     titleFromURL(rawURL),
		WordCount: 0,
		Degraded:  true,
	}
}

func titleFromURL(rawURL string) string {
	u, err := nurl.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	segment := ""
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			segment = part
		}
	}
	if segment == "" {
		return u.Host
	}

	// "my-great-post.html" → "my great post"
	if i := strings.LastIndexByte(segment, '.'); i > 0 {
		segment = segment[:i]
	}
	segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	segment = normalizeWhitespace(segment)
	if segment == "" {
		return u.Host
	}
	return segment
}

func hostOf(rawURL string) string {
	if u, err := nurl.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}
