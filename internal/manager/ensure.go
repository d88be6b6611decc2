package manager

import (
	"context"
	"errors"
	"time"
)

// EnsureInstance loads modelID if it is not already resident. An empty id
// selects the default model; with no default it is a no-op.
func (m *Manager) EnsureInstance(ctx context.Context, modelID string) error {
	if modelID == "" {
		modelID = m.defaultModel
		if modelID == "" {
			return nil
		}
	}
	_, err := m.ensure(ctx, modelID)
	return err
}

// ensure returns a ready instance for modelID, loading it on first use.
// Concurrent callers for the same id wait on a single load.
func (m *Manager) ensure(ctx context.Context, modelID string) (*Instance, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrDependencyUnavailable("manager closed")
	}
	if inst := m.instances[modelID]; inst != nil {
		switch inst.State {
		case StateReady:
			inst.LastUsed = time.Now()
			m.mu.Unlock()
			return inst, nil
		case StateDraining:
			m.mu.Unlock()
			return nil, tooBusyError{modelID: modelID}
		default:
			done := inst.loadDone
			m.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			m.mu.RLock()
			err := inst.loadErr
			m.mu.RUnlock()
			if err != nil {
				return nil, err
			}
			return inst, nil
		}
	}

	mdl, ok := m.getModelByID(modelID)
	if !ok {
		m.mu.Unlock()
		m.publish(EventModelNotFound, modelID, nil)
		return nil, ErrModelNotFound(modelID)
	}
	reqMB := estimateMemMB(mdl)
	var victims []*Instance
	if m.budgetMB > 0 {
		var err error
		victims, err = m.evictUntilFitsLocked(reqMB)
		if err != nil {
			m.mu.Unlock()
			m.closeEvicted(victims)
			m.log.Warn().Str("model", modelID).Int("required_mb", reqMB).Err(err).Msg("ensure budget fail")
			m.publish(EventBudgetExceeded, modelID, map[string]any{"error": err.Error()})
			return nil, err
		}
	}
	inst := &Instance{
		ID:       modelID,
		State:    StateLoading,
		LastUsed: time.Now(),
		EstMemMB: reqMB,
		genCh:    make(chan struct{}, 1),
		queueCh:  make(chan struct{}, m.maxQueueDepth),
		loadDone: make(chan struct{}),
	}
	m.instances[modelID] = inst
	m.usedEstMB += reqMB
	m.state = StateLoading
	opt := m.option
	m.mu.Unlock()
	m.closeEvicted(victims)

	start := time.Now()
	m.log.Info().Str("model", modelID).Int("est_mb", reqMB).Msg("loading model")
	m.publish(EventEnsureStart, modelID, nil)

	// The native load is not interruptible; ctx is not consulted here so
	// that waiters sharing this load are not failed by one caller.
	sess, err := m.adapter.Load(mdl, opt)

	m.mu.Lock()
	var stale Session
	if err == nil && (m.closed || inst.gone) {
		stale, err = sess, errors.New("manager closed during load")
	}
	if err != nil {
		inst.loadErr = err
		if !inst.gone {
			inst.gone = true
			delete(m.instances, modelID)
			m.usedEstMB -= reqMB
		}
		m.state = StateError
		m.err = err.Error()
		close(inst.loadDone)
		m.mu.Unlock()
		if stale != nil {
			_ = stale.Close()
		}
		m.log.Error().Str("model", modelID).Err(err).Msg("model load failed")
		m.publish(EventEnsureError, modelID, map[string]any{"error": err.Error()})
		return nil, err
	}
	inst.session = sess
	inst.State = StateReady
	inst.LastUsed = time.Now()
	m.cur = &ModelInfo{ID: modelID, Name: mdl.Name}
	m.state = StateReady
	m.err = ""
	close(inst.loadDone)
	m.mu.Unlock()

	m.loadsTotal.Add(1)
	dur := time.Since(start)
	if err := m.usage.RecordLoad(context.WithoutCancel(ctx), modelID, time.Now()); err != nil {
		m.log.Warn().Str("model", modelID).Err(err).Msg("usage record load")
	}
	m.log.Info().Str("model", modelID).Dur("dur", dur).Msg("model ready")
	m.publish(EventEnsureReady, modelID, map[string]any{"dur_ms": int(dur / time.Millisecond)})
	return inst, nil
}
