package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Lifecycle event names.
const (
	EventEnsureStart    = "ensure_start"
	EventEnsureReady    = "ensure_ready"
	EventEnsureError    = "ensure_error"
	EventModelNotFound  = "ensure_model_not_found"
	EventBudgetExceeded = "ensure_budget_fail"
	EventEvicted        = "evicted"
	EventUnloadStart    = "unload_start"
	EventUnloadDone     = "unload_done"
	EventUnloadTimeout  = "unload_timeout"
)

// Event is one instance lifecycle transition.
type Event struct {
	Name    string
	ModelID string
	At      time.Time
	Fields  map[string]any
}

// EventPublisher receives events from the manager. Publish is called
// without the manager lock held and must not block.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes every event as a debug line.
type LogPublisher struct{ log zerolog.Logger }

// NewLogPublisher returns a publisher logging to l.
func NewLogPublisher(l zerolog.Logger) LogPublisher {
	return LogPublisher{log: l.With().Str("component", "events").Logger()}
}

func (p LogPublisher) Publish(e Event) {
	ev := p.log.Debug().Str("event", e.Name).Str("model", e.ModelID).Time("at", e.At)
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("lifecycle")
}

func (m *Manager) publish(name, modelID string, fields map[string]any) {
	m.publisher.Publish(Event{Name: name, ModelID: modelID, At: time.Now(), Fields: fields})
}
