package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/aegis/internal/domain"
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
)

// Context carries optional advisory hints folded into the upstream prompt.
// Nil pointers and a nil Sectors slice mean "absent", which is distinct from
// an explicitly empty value for fingerprinting.
type Context struct {
	Location  *string
	Sectors   []string
	Timeframe *string
}

// HasHints reports whether at least one field carries a usable value.
func (c *Context) HasHints() bool {
	if c == nil {
		return false
	}
	return deref(c.Location) != "" || len(c.Sectors) > 0 || deref(c.Timeframe) != ""
}

// LocationValue returns the location or "".
func (c *Context) LocationValue() string {
	if c == nil {
		return ""
	}
	return deref(c.Location)
}

// TimeframeValue returns the timeframe or "".
func (c *Context) TimeframeValue() string {
	if c == nil {
		return ""
	}
	return deref(c.Timeframe)
}

// Query is a validated question addressed to the gateway.
type Query struct {
	text    string
	mode    mode.Mode
	context *Context
}

type input struct {
	Text string `validate:"required"`
	Mode string `validate:"required,oneof=deep_research reasoning_pro search_citation"`
}

var validate = validator.New()

// New validates the caller input. Violations wrap domain.ErrInvalidRequest.
func New(text string, m mode.Mode, ctx *Context) (Query, error) {
	err := validate.Struct(input{Text: text, Mode: string(m)})
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return Query{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		switch verrs[0].Field() {
		case "Text":
			return Query{}, fmt.Errorf("%w: query is required and must be a string", domain.ErrInvalidRequest)
		default:
			return Query{}, fmt.Errorf("%w: mode must be one of: %s",
				domain.ErrInvalidRequest, strings.Join(modeNames(), ", "))
		}
	}
	return Query{text: text, mode: m, context: ctx}, nil
}

// Reconstruct builds a Query without validation (cache rehydration, tests).
func Reconstruct(text string, m mode.Mode, ctx *Context) Query {
	return Query{text: text, mode: m, context: ctx}
}

// Text returns the raw question.
func (q Query) Text() string { return q.text }

// Mode returns the query mode.
func (q Query) Mode() mode.Mode { return q.mode }

// Context returns the optional hints, possibly nil.
func (q Query) Context() *Context { return q.context }

func modeNames() []string {
	all := mode.All()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = string(m)
	}
	return names
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
