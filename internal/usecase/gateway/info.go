package gateway

import (
	"github.com/kailas-cloud/aegis/internal/domain/query/mode"
	"github.com/kailas-cloud/aegis/internal/version"
)

// Info is static service metadata.
type Info struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
	Modes     []mode.Mode       `json:"modes"`
}

// Info describes the gateway.
func (s *Service) Info() Info {
	return Info{
		Service: version.Service,
		Version: version.Version,
		Status:  "operational",
		Endpoints: map[string]string{
			"query": "POST /api/sonar-query",
		},
		Modes: mode.All(),
	}
}
