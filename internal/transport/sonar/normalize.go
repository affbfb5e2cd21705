package sonar

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/query"
)

const (
	unknownSource = "Unknown Source"
	snippetRunes  = 200
)

// stepLine matches numbered ("1.") and bulleted ("-", "*") list items.
var stepLine = regexp.MustCompile(`(?m)^(?:\d+\.|[-*])[ \t]+(.+)$`)

// buildPrompt appends the context hints to the question when any is set.
func buildPrompt(q query.Query) string {
	ctx := q.Context()
	if !ctx.HasHints() {
		return q.Text()
	}

	var parts []string
	if l := ctx.LocationValue(); l != "" {
		parts = append(parts, "Location: "+l)
	}
	if len(ctx.Sectors) > 0 {
		parts = append(parts, "Focus areas: "+strings.Join(ctx.Sectors, ", "))
	}
	if tf := ctx.TimeframeValue(); tf != "" {
		parts = append(parts, "Timeframe: "+tf)
	}
	return q.Text() + "\n\nContext: " + strings.Join(parts, " | ")
}

func toCitations(in []citation) []answer.Citation {
	out := make([]answer.Citation, 0, len(in))
	for _, c := range in {
		src := sourceDomain(c.URL)
		title := c.Title
		if title == "" {
			title = src
		}
		out = append(out, answer.Citation{
			Title:   title,
			URL:     c.URL,
			Source:  src,
			Snippet: snippet(c.Text),
		})
	}
	return out
}

func sourceDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return unknownSource
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetRunes {
		return text
	}
	return string([]rune(text)[:snippetRunes]) + "..."
}

// extractSteps returns list items found in the answer, or an empty slice.
func extractSteps(content string) []string {
	steps := []string{}
	for _, m := range stepLine.FindAllStringSubmatch(content, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// confidence is a heuristic: ten points per citation plus one per hundred
// characters, clamped to [60, 95].
func confidence(citations int, content string) int {
	score := float64(citations)*10 + float64(utf8.RuneCountInString(content))/100
	return int(math.Round(math.Min(95, math.Max(60, score))))
}
