package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StatsPort is the presence surface other modules consume.
type StatsPort interface {
	GetStats(ctx context.Context) (Stats, error)
}

// Adapter implements StatsPort over the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new Adapter.
func NewAdapter(container mono.ServiceContainer) StatsPort {
	if container == nil {
		panic("presence: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// GetStats fetches the lifetime counters.
func (a *Adapter) GetStats(ctx context.Context) (Stats, error) {
	req := GetStatsRequest{}
	var resp Stats
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return resp, nil
}
