package api

import "github.com/example/knights-meet-server/modules/presence"

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// StatsResponse is the GET /api/v1/stats response: live gauges from the hub
// plus lifetime counters from the presence module.
type StatsResponse struct {
	ConnectedClients int            `json:"connected_clients"`
	ActiveRooms      int            `json:"active_rooms"`
	Lifetime         presence.Stats `json:"lifetime"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
