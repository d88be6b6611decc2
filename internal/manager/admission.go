package manager

import (
	"context"
	"time"
)

// beginInference reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (m *Manager) beginInference(ctx context.Context, inst *Instance) (func(), error) {
	noop := func() {}
	m.mu.RLock()
	state, gone := inst.State, inst.gone
	m.mu.RUnlock()
	if gone {
		return noop, errInstanceGone
	}
	// Draining instances reject new work.
	if state == StateDraining {
		return noop, tooBusyError{modelID: inst.ID}
	}
	if err := ctx.Err(); err != nil {
		return noop, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
	case <-ctx.Done():
		return noop, ctx.Err()
	case <-timer.C:
		return noop, tooBusyError{modelID: inst.ID}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-inst.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return noop, err
	}
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case inst.genCh <- struct{}{}:
	case <-ctx.Done():
		return noop, ctx.Err()
	case <-timer2.C:
		return noop, tooBusyError{modelID: inst.ID}
	}

	m.mu.Lock()
	if inst.gone {
		m.mu.Unlock()
		<-inst.genCh
		return noop, errInstanceGone
	}
	inst.LastUsed = time.Now()
	m.mu.Unlock()
	acquired = true
	return func() { <-inst.genCh; <-inst.queueCh }, nil
}
