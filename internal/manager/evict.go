package manager

// evictUntilFitsLocked removes LRU idle ready instances until requiredMB
// fits the budget less the reserved margin. Callers hold m.mu and must pass
// the returned victims to closeEvicted after unlocking. When nothing idle is left to
// evict it returns a budgetExceededError along with whatever it already
// evicted.
func (m *Manager) evictUntilFitsLocked(requiredMB int) ([]*Instance, error) {
	var victims []*Instance
	for m.usedEstMB+requiredMB+m.marginMB > m.budgetMB {
		var lru *Instance
		for _, inst := range m.instances {
			if inst.State != StateReady || !inst.idle() {
				continue
			}
			if lru == nil || inst.LastUsed.Before(lru.LastUsed) {
				lru = inst
			}
		}
		if lru == nil {
			return victims, budgetExceededError{requiredMB: requiredMB, budgetMB: m.budgetMB}
		}
		lru.gone = true
		delete(m.instances, lru.ID)
		m.usedEstMB -= lru.EstMemMB
		victims = append(victims, lru)
	}
	return victims, nil
}

func (m *Manager) closeEvicted(victims []*Instance) {
	for _, inst := range victims {
		m.evictionsTotal.Add(1)
		if inst.session != nil {
			if err := inst.session.Close(); err != nil {
				m.log.Warn().Str("model", inst.ID).Err(err).Msg("close evicted instance")
			}
		}
		m.log.Info().Str("model", inst.ID).Int("freed_mb", inst.EstMemMB).Msg("evicted")
		m.publish(EventEvicted, inst.ID, map[string]any{"freed_mb": inst.EstMemMB})
	}
}
