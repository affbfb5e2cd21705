package answer

// Citation is a normalized source reference.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Snippet string `json:"snippet,omitempty"`
}

// Answer is the normalized upstream result. The JSON shape is the payload
// persisted in the cache and served to the dashboard.
type Answer struct {
	Text             string     `json:"answer"`
	Citations        []Citation `json:"citations"`
	Steps            []string   `json:"steps,omitempty"`
	Confidence       int        `json:"confidence"`
	ProcessingTimeMs int64      `json:"processing_time"`
}
