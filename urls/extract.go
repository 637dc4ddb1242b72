// Package urls finds, normalizes and fingerprints URLs mentioned in
// free-text chat messages.
package urls

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// The four extraction layers, in precedence order. A span claimed by an
// earlier layer suppresses overlapping matches from later layers, so
// "https://www.example.com" is captured once by the protocol layer and
// not a second time by the bare-www layer.
var (
	reProtocol = regexp.MustCompile(`https?://[^\s<>"'` + "`" + `]+`)
	reWWW      = regexp.MustCompile(`\bwww\.[A-Za-z0-9][A-Za-z0-9.-]*(?::\d+)?(?:/[^\s<>"']*)?`)

	// Known URL shorteners commonly pasted without a scheme.
	reShortener = regexp.MustCompile(`\b(?:bit\.ly|t\.co|goo\.gl|tinyurl\.com|youtu\.be|is\.gd|buff\.ly|ow\.ly|rebrand\.ly|cutt\.ly|lin\.ee|s\.id)/[^\s<>"']+`)

	// Bare domain.tld mentions, restricted to common TLDs to avoid
	// swallowing version strings and file names.
	reBareDomain = regexp.MustCompile(`\b[A-Za-z0-9][A-Za-z0-9-]{0,62}(?:\.[A-Za-z0-9][A-Za-z0-9-]{0,62})*\.(?:com|org|net|io|dev|app|ai|me|info|biz|tv|co|jp|uk|us|edu|gov)\b(?:/[^\s<>"']*)?`)
)

// trailing punctuation that the character-class regexes over-capture when a
// URL ends a sentence or sits inside brackets.
const trailingPunct = `.,;:!?)]}>"'`

type candidate struct {
	start int
	end   int
	raw   string
	// bare is true for layers that match without a scheme; "https://" is
	// synthesized before validation.
	bare bool
}

// Extract returns every well-formed URL mentioned in text, in
// first-occurrence order, normalized and deduplicated. A text with no URLs
// returns an empty slice (the caller treats that as a help/menu trigger,
// not an error).
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	var found []candidate
	claimed := make([]candidate, 0, 4)

	layers := []struct {
		re   *regexp.Regexp
		bare bool
	}{
		{reProtocol, false},
		{reWWW, true},
		{reShortener, true},
		{reBareDomain, true},
	}

	for _, layer := range layers {
		for _, span := range layer.re.FindAllStringIndex(text, -1) {
			c := candidate{start: span[0], end: span[1], raw: text[span[0]:span[1]], bare: layer.bare}
			if overlaps(claimed, c) {
				continue
			}
			claimed = append(claimed, c)
			found = append(found, c)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })

	seen := make(map[string]struct{}, len(found))
	result := make([]string, 0, len(found))
	for _, c := range found {
		cleaned := cleanCandidate(c.raw)
		if cleaned == "" {
			continue
		}
		if c.bare {
			cleaned = "https://" + cleaned
		}
		if !isValidURL(cleaned) {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		result = append(result, cleaned)
	}
	return result
}

func overlaps(claimed []candidate, c candidate) bool {
	for _, o := range claimed {
		if c.start < o.end && o.start < c.end {
			return true
		}
	}
	return false
}

// cleanCandidate strips surrounding quotes and over-captured trailing
// punctuation. A trailing ")" is kept when the URL itself contains a
// matching "(" (Wikipedia-style paths).
func cleanCandidate(raw string) string {
	s := strings.Trim(raw, `"'`)
	for len(s) > 0 {
		last := s[len(s)-1]
		if !strings.ContainsRune(trailingPunct, rune(last)) {
			break
		}
		if last == ')' && strings.Count(s, "(") >= strings.Count(s, ")") {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

// isValidURL requires a parseable URL with both scheme and host, and a host
// that looks like a real domain (contains a dot).
func isValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".")
}
