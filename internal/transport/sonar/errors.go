package sonar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/aegis/internal/domain"
)

// Error is a failed upstream call. StatusCode is 0 for transport failures.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sonar API error: %d - %s", e.StatusCode, e.Message)
	}
	return "sonar API error: " + e.Message
}

// Unwrap makes every Error match domain.ErrUpstream.
func (e *Error) Unwrap() error { return domain.ErrUpstream }

// errorFromBody extracts a readable message from a non-2xx response body.
func errorFromBody(status int, body []byte) *Error {
	var resp openai.ErrorResponse
	if json.Unmarshal(body, &resp) == nil && resp.Error != nil && resp.Error.Message != "" {
		return &Error{StatusCode: status, Message: resp.Error.Message}
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		return &Error{StatusCode: status, Message: detail.Detail}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}
	return &Error{StatusCode: status, Message: msg}
}

// HTTPStatus exposes the provider status to classifiers outside this package.
func (e *Error) HTTPStatus() int { return e.StatusCode }
