package urls

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Query parameters that identify the click, not the document. Stripped
// during normalization so the same article shared through different
// campaigns dedups to one record.
var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
	"igshid":  {},
}

// Normalize canonicalizes a URL for fingerprinting: lowercase scheme and
// host, default ports stripped, fragment dropped, tracking query parameters
// removed (order of surviving parameters preserved), trailing slash trimmed.
// Unparseable input is returned unchanged — the fingerprint is still
// deterministic, just less canonical.
func Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}

	u.Fragment = ""
	u.RawQuery = filterQuery(u.RawQuery)
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}

// filterQuery removes tracking parameters while keeping the remaining
// pairs in their original order (url.Values would shuffle them).
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			continue
		}
		if _, tracked := trackingQueryKeys[lower]; tracked {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// Fingerprint returns the dedup key for a URL: the hex SHA-256 of its
// normalized form.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(Normalize(raw)))
	return hex.EncodeToString(sum[:])
}
