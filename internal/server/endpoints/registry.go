package endpoints

import (
	"github.com/planora/planora/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},

		// Extraction endpoint
		&ExtractEndpoint{},
	}
}
