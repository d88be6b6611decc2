package manager

import (
	"time"
)

// Unload initiates a graceful drain of a model instance and removes it.
//   - Sets instance state to draining to reject new enqueues.
//   - Waits up to drainTimeout for in-flight and queued requests to finish.
//   - Closes the network and removes the instance entry.
func (m *Manager) Unload(modelID string) error {
	if modelID == "" {
		return ErrModelNotFound("(unspecified)")
	}
	m.mu.Lock()
	inst := m.instances[modelID]
	if inst == nil {
		m.mu.Unlock()
		return ErrModelNotFound(modelID)
	}
	if inst.State == StateLoading {
		done := inst.loadDone
		m.mu.Unlock()
		<-done
		m.mu.Lock()
		if inst.gone {
			m.mu.Unlock()
			return nil
		}
	}
	inst.State = StateDraining
	m.mu.Unlock()
	m.publish(EventUnloadStart, modelID, nil)

	m.drain(inst)

	m.mu.Lock()
	if !inst.gone {
		inst.gone = true
		m.usedEstMB -= inst.EstMemMB
		if m.usedEstMB < 0 {
			m.usedEstMB = 0
		}
		delete(m.instances, modelID)
	}
	if m.cur != nil && m.cur.ID == modelID {
		m.cur = nil
	}
	m.mu.Unlock()

	err := inst.session.Close()
	m.log.Info().Str("model", modelID).Msg("unloaded")
	m.publish(EventUnloadDone, modelID, nil)
	return err
}

// drain waits until inst has no queued or in-flight work, or the drain
// timeout passes.
func (m *Manager) drain(inst *Instance) {
	deadline := time.Now().Add(m.drainTimeout)
	for {
		qlen, inflight := len(inst.queueCh), len(inst.genCh)
		if inflight == 0 && qlen == 0 {
			return
		}
		if time.Now().After(deadline) {
			m.log.Warn().Str("model", inst.ID).Int("inflight", inflight).Int("queue", qlen).Msg("drain timeout")
			m.publish(EventUnloadTimeout, inst.ID, map[string]any{"inflight": inflight, "queue": qlen})
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close drains and releases every instance. Further loads fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	var ids []string
	for id := range m.instances {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var first error
	for _, id := range ids {
		if err := m.Unload(id); err != nil && !IsModelNotFound(err) && first == nil {
			first = err
		}
	}
	return first
}
