package sonar

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// Defaults for the Perplexity Sonar chat-completions API.
const (
	DefaultBaseURL     = "https://api.perplexity.ai"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.2
	DefaultTopP        = 0.9

	DefaultSystemPrompt = "You are AEGIS, an AI assistant specialized in public health, governance, " +
		"and climate resilience analysis. Provide comprehensive, well-cited responses with actionable insights."
)

// DefaultSearchDomains restricts search grounding to trusted sources.
var DefaultSearchDomains = []string{
	"pubmed.ncbi.nlm.nih.gov",
	"who.int",
	"cdc.gov",
	"nature.com",
	"science.org",
}

// DefaultModels maps each mode to its model tier.
var DefaultModels = map[mode.Mode]string{
	mode.DeepResearch:   "llama-3.1-sonar-large-128k-online",
	mode.ReasoningPro:   "llama-3.1-sonar-reasoning-128k-online",
	mode.SearchCitation: "llama-3.1-sonar-small-128k-online",
}

// Config holds the upstream provider settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxTokens     int
	Temperature   float32
	TopP          float32
	SearchDomains []string
	// Models overrides entries of DefaultModels.
	Models       map[mode.Mode]string
	SystemPrompt string
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.TopP <= 0 {
		c.TopP = DefaultTopP
	}
	if c.SearchDomains == nil {
		c.SearchDomains = DefaultSearchDomains
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	models := make(map[mode.Mode]string, len(DefaultModels))
	for m, name := range DefaultModels {
		models[m] = name
	}
	for m, name := range c.Models {
		if name != "" {
			models[m] = name
		}
	}
	c.Models = models
}
