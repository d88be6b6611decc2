package manager

import "sync"

// MemoryPublisher keeps the most recent events in publish order. A zero
// limit keeps everything.
type MemoryPublisher struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

// NewBoundedMemoryPublisher keeps at most limit events, dropping the oldest.
func NewBoundedMemoryPublisher(limit int) *MemoryPublisher {
	if limit < 0 {
		limit = 0
	}
	return &MemoryPublisher{limit: limit}
}

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	if p.limit > 0 && len(p.events) > p.limit {
		drop := len(p.events) - p.limit
		p.events = append(p.events[:0], p.events[drop:]...)
	}
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// ForModel returns the retained events for one model id.
func (p *MemoryPublisher) ForModel(id string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.ModelID == id {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the event names in publish order.
func (p *MemoryPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name
	}
	return out
}
