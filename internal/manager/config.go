package manager

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 5 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Registry     []types.Model
	BudgetMB     int // 0 disables eviction
	MarginMB     int
	DefaultModel string
	// Queueing
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	// Option applied to every net loaded. Zero value means ncnn.DefaultOption.
	Option *ncnn.Option
	// Adapter defaults to the ncnn adapter.
	Adapter   InferenceAdapter
	Usage     UsageStore
	Publisher EventPublisher
	Logger    *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:        StateLoading,
		registry:     cfg.Registry,
		budgetMB:     cfg.BudgetMB,
		marginMB:     cfg.MarginMB,
		defaultModel: cfg.DefaultModel,
		instances:    make(map[string]*Instance),
		adapter:      cfg.Adapter,
		usage:        cfg.Usage,
		publisher:    cfg.Publisher,
		log:          zerolog.Nop(),
		newID:        uuid.NewString,
		startTime:    time.Now(),
	}
	// Apply defaults if unset
	m.maxQueueDepth = cfg.MaxQueueDepth
	if m.maxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	}
	m.maxWait = cfg.MaxWait
	if m.maxWait <= 0 {
		m.maxWait = defaultMaxWait
	}
	m.drainTimeout = cfg.DrainTimeout
	if m.drainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	}
	m.option = ncnn.DefaultOption()
	if cfg.Option != nil {
		m.option = *cfg.Option
	}
	if m.adapter == nil {
		m.adapter = NewNCNNAdapter()
	}
	if m.usage == nil {
		m.usage = noopUsage{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	return m
}
