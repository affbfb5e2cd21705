package aegis

import "time"

// Mode selects the upstream model tier.
type Mode string

// Mode constants.
const (
	ModeDeepResearch   Mode = "deep_research"
	ModeReasoningPro   Mode = "reasoning_pro"
	ModeSearchCitation Mode = "search_citation"
)

// QueryRequest is the body of POST /api/sonar-query.
type QueryRequest struct {
	Query   string        `json:"query"`
	Mode    Mode          `json:"mode"`
	Context *QueryContext `json:"context,omitempty"`
}

// QueryContext carries optional hints. Unset fields are omitted from the wire.
type QueryContext struct {
	Location  string   `json:"location,omitempty"`
	Sectors   []string `json:"sectors,omitempty"`
	Timeframe string   `json:"timeframe,omitempty"`
}

// Citation is a source reference.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Snippet string `json:"snippet,omitempty"`
}

// QueryResponse is a gateway answer.
type QueryResponse struct {
	Answer         string     `json:"answer"`
	Citations      []Citation `json:"citations"`
	Steps          []string   `json:"steps,omitempty"`
	Confidence     int        `json:"confidence"`
	ProcessingTime int64      `json:"processing_time"` // milliseconds
	Cached         bool       `json:"cached"`
	CacheTimestamp *time.Time `json:"cache_timestamp,omitempty"`
}

// ServiceInfo is returned by GET /api/sonar-query.
type ServiceInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
	Modes     []Mode            `json:"modes"`
}

// HealthStatus represents the aggregated gateway health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}
