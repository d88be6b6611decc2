package manager

import (
	"os"

	"ncnnd/pkg/types"
)

// Helper: find model in registry by id. Callers hold m.mu.
func (m *Manager) getModelByID(id string) (types.Model, bool) {
	for _, mdl := range m.registry {
		if mdl.ID == id {
			return mdl, true
		}
	}
	return types.Model{}, false
}

// estimateMemMB approximates resident memory from the weights size,
// rounding up. Never less than 1 so unknown sizes still count against the
// budget.
func estimateMemMB(mdl types.Model) int {
	size := mdl.WeightsBytes
	if size <= 0 {
		fi, err := os.Stat(mdl.WeightsPath)
		if err != nil {
			return 1
		}
		size = fi.Size()
	}
	mb := int((size + (1<<20 - 1)) >> 20)
	if mb <= 0 {
		mb = 1
	}
	return mb
}

func (m *Manager) resolveModelID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if m.defaultModel == "" {
		return "", modelNotFoundError{id: "(unspecified)"}
	}
	return m.defaultModel, nil
}
