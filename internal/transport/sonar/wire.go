package sonar

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// chatRequest is the chat-completions body plus the provider's search extensions.
type chatRequest struct {
	Model              string                         `json:"model"`
	Messages           []openai.ChatCompletionMessage `json:"messages"`
	MaxTokens          int                            `json:"max_tokens,omitempty"`
	Temperature        float32                        `json:"temperature,omitempty"`
	TopP               float32                        `json:"top_p,omitempty"`
	ReturnCitations    bool                           `json:"return_citations"`
	SearchDomainFilter []string                       `json:"search_domain_filter,omitempty"`
}

// chatResponse is the chat-completions response plus top-level citations.
type chatResponse struct {
	ID        string                        `json:"id"`
	Model     string                        `json:"model"`
	Choices   []openai.ChatCompletionChoice `json:"choices"`
	Usage     openai.Usage                  `json:"usage"`
	Citations []citation                    `json:"citations,omitempty"`
}

// citation accepts both the object form {title,url,text} and a bare URL string.
type citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

func (c *citation) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var url string
		if err := json.Unmarshal(b, &url); err != nil {
			return err //nolint:wrapcheck // decoder error
		}
		*c = citation{URL: url}
		return nil
	}

	type plain citation
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err //nolint:wrapcheck // decoder error
	}
	*c = citation(p)
	return nil
}
