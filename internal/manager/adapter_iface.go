package manager

import (
	"context"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

// InferenceAdapter abstracts the model runtime used by the Manager.
type InferenceAdapter interface {
	// Load opens the model's topology and weights with the given option.
	Load(model types.Model, opt ncnn.Option) (Session, error)
}

// Session is a loaded network. The Manager never calls Run concurrently on
// the same Session.
type Session interface {
	// Run binds the inputs, extracts the outputs and returns them. It must
	// return promptly once ctx is canceled between native calls.
	Run(ctx context.Context, req RunRequest) (map[string]types.Tensor, error)
	// Close releases the network.
	Close() error
}

// RunRequest is one inference against a Session.
type RunRequest struct {
	Inputs map[string]types.Tensor
	// Outputs to extract; empty means the topology's outputs.
	Outputs []string
	// LightMode overrides the session option when non-nil.
	LightMode *bool
}
