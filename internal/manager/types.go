package manager

import "time"

// State represents lifecycle state of the manager/instances.
type State string

const (
	StateReady    State = "ready"
	StateLoading  State = "loading"
	StateDraining State = "draining"
	StateError    State = "error"
)

// ModelInfo is a minimal view of the most recently loaded model.
type ModelInfo struct {
	ID   string
	Name string
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State        State
	CurrentModel *ModelInfo
	Err          string
}

// Instance represents a loaded network (one per model id).
type Instance struct {
	ID       string
	State    State
	LastUsed time.Time
	EstMemMB int
	// Queueing primitives
	genCh   chan struct{} // size 1: single in-flight native call
	queueCh chan struct{} // buffered: queue slots

	session    Session
	inferences uint64

	// loadDone is closed once loading finishes; loadErr is set before.
	loadDone chan struct{}
	loadErr  error
	// gone is set under Manager.mu when the instance was evicted or unloaded.
	gone bool
}

func (i *Instance) idle() bool { return len(i.genCh) == 0 && len(i.queueCh) == 0 }
