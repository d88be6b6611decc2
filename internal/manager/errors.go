package manager

import (
	"errors"
	"fmt"

	"ncnnd/pkg/ncnn"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ modelID string }

func (e tooBusyError) Error() string { return "too busy: " + e.modelID }

// ErrTooBusy constructs the backpressure error for modelID.
func ErrTooBusy(modelID string) error { return tooBusyError{modelID: modelID} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error when a requested model id is not present in the registry.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals the native engine is missing so the
// HTTP layer can return 503 instead of 500.
type dependencyUnavailableError struct {
	msg string
	err error
}

func (e dependencyUnavailableError) Error() string { return e.msg }

func (e dependencyUnavailableError) Unwrap() error { return e.err }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e) || ncnn.IsDependencyUnavailable(err)
}

type budgetExceededError struct{ requiredMB, budgetMB int }

func (e budgetExceededError) Error() string {
	return fmt.Sprintf("memory budget exceeded: need %d MB of %d MB and no idle instance to evict", e.requiredMB, e.budgetMB)
}

// IsBudgetExceeded reports whether a load was refused because nothing could
// be evicted to make room.
func IsBudgetExceeded(err error) bool {
	var e budgetExceededError
	return errors.As(err, &e)
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

// IsBadRequest reports whether err was caused by the request payload
// (missing inputs, shape mismatch).
func IsBadRequest(err error) bool {
	var e badRequestError
	return errors.As(err, &e)
}

// IsBlobNotFound reports whether the network has no blob with a requested
// input or output name.
func IsBlobNotFound(err error) bool { return ncnn.IsBlobNotFound(err) }

// errInstanceGone is returned by admission when the instance was evicted
// while the request was queued. Infer retries once with a fresh load.
var errInstanceGone = errors.New("instance evicted")
