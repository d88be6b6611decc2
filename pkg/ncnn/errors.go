package ncnn

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDependencyUnavailable is returned when the binary was built without
	// the native ncnn boundary (missing 'ncnn' build tag or cgo disabled).
	ErrDependencyUnavailable = errors.New("ncnn support not built (missing 'ncnn' build tag)")
	// ErrAllocFailed is returned when the native layer returns a NULL handle.
	ErrAllocFailed = errors.New("ncnn: native allocation failed")
	// ErrLoadFailed is the cause of every *LoadError.
	ErrLoadFailed = errors.New("ncnn: load failed")
	// ErrBlobNotFound reports an unknown input or output blob name.
	ErrBlobNotFound = errors.New("ncnn: blob not found")
	// ErrExtractFailed reports a non-lookup failure while binding or extracting.
	ErrExtractFailed = errors.New("ncnn: extract failed")
	// ErrNetClosed is returned by any use of a closed Net or of an Extractor
	// whose Net was closed.
	ErrNetClosed = errors.New("ncnn: net is closed")
	// ErrExtractorClosed is returned by any use of a closed Extractor.
	ErrExtractorClosed = errors.New("ncnn: extractor is closed")
)

// LoadKind names what a load call was loading.
type LoadKind string

const (
	KindParam    LoadKind = "param"
	KindParamBin LoadKind = "param.bin"
	KindModel    LoadKind = "model"
)

// LoadError records a failed topology or weights load.
type LoadError struct {
	Kind LoadKind
	// Source is the attempted path, or a description of the in-memory/stream
	// source ("<bytes>", "<reader>").
	Source string
	// Code is the native return code (0 when the failure happened before the
	// native call).
	Code int
	// Err is the underlying cause when the failure was not a native code.
	Err error
	// CleanupErr is set when removing the temporary file also failed.
	CleanupErr error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("ncnn: error loading %s %s", e.Kind, e.Source)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.CleanupErr != nil {
		msg += "; cleanup: " + e.CleanupErr.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() []error {
	errs := []error{ErrLoadFailed}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CleanupError reports that a load from memory succeeded but the temporary
// file used to bridge it could not be removed. The net is loaded.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("ncnn: loaded, but failed to remove temporary file %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// BlobError records a failed Input or Extract call.
type BlobError struct {
	Op   string // "input" or "extract"
	Name string
	Code int
}

func (e *BlobError) Error() string {
	if e.Code == codeBlobNotFound {
		return fmt.Sprintf("ncnn: %s: blob %q not found", e.Op, e.Name)
	}
	return fmt.Sprintf("ncnn: %s %q failed (code %d)", e.Op, e.Name, e.Code)
}

func (e *BlobError) Unwrap() error {
	if e.Code == codeBlobNotFound {
		return ErrBlobNotFound
	}
	return ErrExtractFailed
}

// codeBlobNotFound is what Extractor::input/extract return when
// find_blob_index_by_name fails.
const codeBlobNotFound = -1

// codeUnsupportedLayout is produced by the boundary when an extracted mat is
// not plain fp32 with elempack 1.
const codeUnsupportedLayout = -1000

// IsBlobNotFound reports whether err indicates an unknown blob name.
func IsBlobNotFound(err error) bool { return errors.Is(err, ErrBlobNotFound) }

// IsLoadFailed reports whether err is a failed topology/weights load.
func IsLoadFailed(err error) bool { return errors.Is(err, ErrLoadFailed) }

// IsDependencyUnavailable reports whether err indicates a build without ncnn.
func IsDependencyUnavailable(err error) bool { return errors.Is(err, ErrDependencyUnavailable) }

// IsCleanupOnly reports whether err only signals a temp-file removal failure
// after a successful load.
func IsCleanupOnly(err error) bool {
	var ce *CleanupError
	return errors.As(err, &ce)
}
