package fetcher

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// semantic containers tried, in order, when readability fails to locate the
// main content. Class-name selectors cover the common CMS themes.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".article-body",
	".post-content",
	".entry-content",
	".article-content",
	".story-body",
	"#content",
	".content",
}

var compiledContentSelectors = func() []cascadia.Selector {
	sels := make([]cascadia.Selector, 0, len(contentSelectors))
	for _, s := range contentSelectors {
		if sel, err := cascadia.Compile(s); err == nil {
			sels = append(sels, sel)
		}
	}
	return sels
}()

var reWhitespace = regexp.MustCompile(`\s+`)

// pageMeta holds best-effort metadata pulled from the document head.
type pageMeta struct {
	title       string
	description string
	author      string
	publishedAt *time.Time
}

// extractMeta resolves page metadata via the usual cascade:
// og:title → twitter:title → <title>; description from og/meta;
// author from meta[name=author] or byline selectors; published time from
// article:published_time or the first <time datetime>.
func extractMeta(doc *goquery.Document) pageMeta {
	var m pageMeta

	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		m.title = strings.TrimSpace(v)
	} else if v, ok := doc.Find(`meta[name="twitter:title"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		m.title = strings.TrimSpace(v)
	} else {
		m.title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		m.description = strings.TrimSpace(v)
	} else if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		m.description = strings.TrimSpace(v)
	}

	if v, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		m.author = strings.TrimSpace(v)
	} else {
		m.author = strings.TrimSpace(doc.Find(`[rel="author"], .byline, .author-name`).First().Text())
	}

	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		m.publishedAt = parseTime(v)
	}
	if m.publishedAt == nil {
		if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			m.publishedAt = parseTime(v)
		}
	}

	return m
}

func parseTime(v string) *time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// extractBody runs the container cascade against the parsed document root
// and returns (textContent, containerHTML). Falls back to concatenating the
// first maxParagraphs <p> elements when no container yields at least
// minBodyChars of text.
func extractBody(root *html.Node, doc *goquery.Document, maxParagraphs int) (string, string) {
	for _, sel := range compiledContentSelectors {
		node := sel.MatchFirst(root)
		if node == nil {
			continue
		}
		text := normalizeWhitespace(nodeText(node))
		if len(text) >= minBodyChars {
			var buf bytes.Buffer
			_ = html.Render(&buf, node)
			return text, buf.String()
		}
	}

	// Paragraph fallback: concatenate the first N <p> text nodes.
	var parts []string
	doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxParagraphs {
			return false
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
		return true
	})
	return normalizeWhitespace(strings.Join(parts, " ")), ""
}

// nodeText collects the text content of a node, skipping script and style
// subtrees.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
			buf.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// truncateRunes bounds the extracted body so downstream analysis (and LLM
// token spend) stays predictable. Cuts on a rune boundary.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
