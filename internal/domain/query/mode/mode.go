package mode

// Mode selects the upstream model tier and post-processing.
type Mode string

// Query mode constants.
const (
	// DeepResearch runs the large online model.
	DeepResearch Mode = "deep_research"
	// ReasoningPro runs the reasoning model and extracts steps from the answer.
	ReasoningPro Mode = "reasoning_pro"
	// SearchCitation runs the small online model for quick cited lookups.
	SearchCitation Mode = "search_citation"
)

// All lists the supported modes in display order.
func All() []Mode {
	return []Mode{DeepResearch, ReasoningPro, SearchCitation}
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == DeepResearch || m == ReasoningPro || m == SearchCitation
}

func (m Mode) String() string { return string(m) }
