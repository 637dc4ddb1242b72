package line

import (
	"fmt"
	"strings"

	"github.com/kri-ruj/linksaver/models"
)

// MaxMessageLength is the hard per-message text budget on the transport.
// Every composed string is truncated to this defensively, even when
// upstream fields were already bounded.
const MaxMessageLength = 2000

const maxSummaryInReply = 300

// ComposeCreated formats the reply for a newly saved article.
func ComposeCreated(a *models.Article) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✅ Saved: %s\n", a.Title)

	if a.Summary != "" {
		fmt.Fprintf(&b, "\n📝 %s\n", Truncate(a.Summary, maxSummaryInReply))
	}

	fmt.Fprintf(&b, "\n🏷 %s · %d min read · %d words",
		a.Category, a.ReadingTimeMinutes, a.WordCount)

	if len(a.Topics) > 0 {
		fmt.Fprintf(&b, "\n🧭 %s", strings.Join(capList(a.Topics, 3), ", "))
	}
	if len(a.Tags) > 0 {
		fmt.Fprintf(&b, "\n%s", strings.Join(capList(a.Tags, 5), " "))
	}

	b.WriteString("\n\nIt's in your inbox — open the dashboard to start reading.")

	return Truncate(b.String(), MaxMessageLength)
}

// ComposeDuplicate acknowledges a URL the user already saved.
func ComposeDuplicate(existing *models.Article) string {
	msg := fmt.Sprintf("📌 Already saved: %s\nIt's in your %s list.", existing.Title, existing.Stage)
	return Truncate(msg, MaxMessageLength)
}

// ComposeError apologises for a failed save. The reason must already be
// user-safe: callers pass a short description, never raw error internals,
// credentials or stack traces.
func ComposeError(url string, reason string) string {
	msg := fmt.Sprintf("😢 Sorry, I couldn't save %s right now (%s). Please try again in a bit.",
		url, Truncate(reason, 120))
	return Truncate(msg, MaxMessageLength)
}

// ComposeHelp is the reply for messages without any URL.
func ComposeHelp() string {
	return "Send me a link and I'll save it for you! 📚\n\n" +
		"I'll fetch the article, summarise it and file it in your inbox. " +
		"You can move it through reading → reviewing → completed on the dashboard."
}

// Truncate bounds s to max runes, reserving one for an ellipsis when
// anything was cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func capList(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
