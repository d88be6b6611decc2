package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

type Manager struct {
	mu           sync.RWMutex
	state        State
	cur          *ModelInfo
	err          string
	registry     []types.Model
	budgetMB     int
	marginMB     int
	defaultModel string
	instances    map[string]*Instance
	usedEstMB    int
	closed       bool

	// Queue config
	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration

	option    ncnn.Option
	adapter   InferenceAdapter
	usage     UsageStore
	publisher EventPublisher
	log       zerolog.Logger
	newID     func() string

	startTime      time.Time
	loadsTotal     atomic.Uint64
	evictionsTotal atomic.Uint64
}

// New constructs a Manager with package defaults for queueing.
func New(reg []types.Model, budgetMB, marginMB int, defaultModel string) *Manager {
	return NewWithConfig(ManagerConfig{
		Registry:     reg,
		BudgetMB:     budgetMB,
		MarginMB:     marginMB,
		DefaultModel: defaultModel,
	})
}

// Ready reports whether at least one instance can serve requests.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == StateError || m.closed {
		return false
	}
	for _, inst := range m.instances {
		if inst.State == StateReady {
			return true
		}
	}
	return false
}

// ListModels returns a copy of the registry.
func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

// GetModel looks up a registry entry by id.
func (m *Manager) GetModel(id string) (types.Model, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getModelByID(id)
}

// DefaultModel returns the id used when a request names no model.
func (m *Manager) DefaultModel() string { return m.defaultModel }
