package manager

import (
	"context"
	"time"

	"ncnnd/pkg/types"
)

// UsageStore persists per-model load and inference accounting. The
// internal/usage package provides the SQLite implementation.
type UsageStore interface {
	RecordLoad(ctx context.Context, modelID string, at time.Time) error
	RecordInference(ctx context.Context, modelID string, dur time.Duration, at time.Time) error
	// Usage lists the persisted records, most recently used first.
	Usage(ctx context.Context) ([]types.ModelUsage, error)
}

// usageReadTimeout bounds the store query made by Status.
const usageReadTimeout = 2 * time.Second

type noopUsage struct{}

func (noopUsage) RecordLoad(context.Context, string, time.Time) error { return nil }

func (noopUsage) RecordInference(context.Context, string, time.Duration, time.Time) error { return nil }

func (noopUsage) Usage(context.Context) ([]types.ModelUsage, error) { return nil, nil }

func (m *Manager) readUsage() []types.ModelUsage {
	ctx, cancel := context.WithTimeout(context.Background(), usageReadTimeout)
	defer cancel()
	recs, err := m.usage.Usage(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("usage read")
		return nil
	}
	return recs
}
