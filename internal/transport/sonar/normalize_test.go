package sonar

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/aegis/internal/domain/query"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

func strPtr(s string) *string { return &s }

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name string
		ctx  *query.Context
		want string
	}{
		{"no context", nil, "q"},
		{"empty context", &query.Context{}, "q"},
		{"empty values", &query.Context{Location: strPtr(""), Sectors: []string{}}, "q"},
		{"location only", &query.Context{Location: strPtr("Lagos")}, "q\n\nContext: Location: Lagos"},
		{
			"all fields",
			&query.Context{Location: strPtr("Lagos"), Sectors: []string{"health", "climate"}, Timeframe: strPtr("2030")},
			"q\n\nContext: Location: Lagos | Focus areas: health, climate | Timeframe: 2030",
		},
		{"timeframe only", &query.Context{Timeframe: strPtr("next 5 years")}, "q\n\nContext: Timeframe: next 5 years"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := query.Reconstruct("q", mode.DeepResearch, tc.ctx)
			if got := buildPrompt(q); got != tc.want {
				t.Errorf("buildPrompt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSourceDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.who.int/news", "who.int"},
		{"https://pubmed.ncbi.nlm.nih.gov/123", "pubmed.ncbi.nlm.nih.gov"},
		{"http://www.example.com:8080/x", "example.com"},
		{"not a url", "Unknown Source"},
		{"", "Unknown Source"},
		{"://bad", "Unknown Source"},
	}
	for _, tc := range tests {
		if got := sourceDomain(tc.url); got != tc.want {
			t.Errorf("sourceDomain(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestSnippet(t *testing.T) {
	short := strings.Repeat("a", 200)
	if got := snippet(short); got != short {
		t.Errorf("200 runes must not be truncated")
	}

	long := strings.Repeat("é", 201)
	got := snippet(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 203 {
		t.Errorf("snippet rune length = %d", len([]rune(got)))
	}
}

func TestExtractSteps(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"numbered", "1. Reduce emissions\n2. Monitor costs", []string{"Reduce emissions", "Monitor costs"}},
		{"bullets", "Plan:\n- Map exposure\n* Open cooling centres  ", []string{"Map exposure", "Open cooling centres"}},
		{"prose", "No list in this answer.", []string{}},
		{"bold is not a bullet", "**Summary** text", []string{}},
		{"marker without space", "1.5 degrees is the target", []string{}},
		{"crlf", "1. One\r\n2. Two", []string{"One", "Two"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractSteps(tc.content)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Errorf("extractSteps = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		citations int
		length    int
		want      int
	}{
		{0, 0, 60},
		{5, 0, 60},
		{7, 0, 70},
		{7, 250, 73},
		{7, 249, 72},
		{9, 1000, 95},
		{20, 0, 95},
	}
	for _, tc := range tests {
		if got := confidence(tc.citations, strings.Repeat("x", tc.length)); got != tc.want {
			t.Errorf("confidence(%d, %d) = %d, want %d", tc.citations, tc.length, got, tc.want)
		}
	}
}

func TestCitation_UnmarshalBothForms(t *testing.T) {
	var got []citation
	raw := `[{"title":"T","url":"https://a.org","text":"x"},"https://b.org"]`
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatal(err)
	}
	if got[0].Title != "T" || got[0].Text != "x" {
		t.Errorf("object form = %+v", got[0])
	}
	if got[1].URL != "https://b.org" || got[1].Title != "" {
		t.Errorf("string form = %+v", got[1])
	}
}
