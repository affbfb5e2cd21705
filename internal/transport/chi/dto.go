package chi

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/aegis/internal/domain/answer"
	"github.com/kailas-cloud/aegis/internal/domain/query"
	gatewayuc "github.com/kailas-cloud/aegis/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/aegis/internal/usecase/health"
)

// queryRequest keeps fields raw so a wrong JSON type reads as a validation
// failure, not a decode failure.
type queryRequest struct {
	Query   json.RawMessage `json:"query"`
	Text    json.RawMessage `json:"text"`
	Mode    json.RawMessage `json:"mode"`
	Context *contextDTO     `json:"context"`
}

type contextDTO struct {
	Location  *string  `json:"location"`
	Sectors   []string `json:"sectors"`
	Timeframe *string  `json:"timeframe"`
}

func (q queryRequest) toDomain() gatewayuc.Request {
	text := q.Text
	if present(q.Query) {
		text = q.Query
	}

	req := gatewayuc.Request{
		Text: stringOrEmpty(text),
		Mode: stringOrEmpty(q.Mode),
	}
	if q.Context != nil {
		req.Context = &query.Context{
			Location:  q.Context.Location,
			Sectors:   q.Context.Sectors,
			Timeframe: q.Context.Timeframe,
		}
	}
	return req
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func stringOrEmpty(raw json.RawMessage) string {
	var s string
	if !present(raw) || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// queryResponse spreads the answer at the top level.
type queryResponse struct {
	answer.Answer
	Cached         bool   `json:"cached"`
	CacheTimestamp string `json:"cache_timestamp,omitempty"`
}

func queryResponseFrom(r gatewayuc.Response) queryResponse {
	out := queryResponse{Answer: r.Answer, Cached: r.Cached}
	if r.Cached {
		out.CacheTimestamp = r.CacheTimestamp.UTC().Format(time.RFC3339Nano)
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}
