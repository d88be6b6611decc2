package ncnn

import (
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Extractor is a single inference context bound to a Net. Inputs are bound
// by blob name, then Extract runs the graph up to the requested output.
type Extractor struct {
	net *Net
	api capi

	mu sync.Mutex
	h  extractorHandle
}

func (e *Extractor) handle() (extractorHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.h == nil {
		return nil, ErrExtractorClosed
	}
	if e.net.isClosed() {
		return nil, ErrNetClosed
	}
	return e.h, nil
}

// SetOption overrides the net's option for this extractor.
func (e *Extractor) SetOption(opt Option) error {
	h, err := e.handle()
	if err != nil {
		return err
	}
	e.api.extractorSetOption(h, opt)
	return nil
}

// SetLightMode toggles intermediate blob recycling, keeping the rest of the
// net's option.
func (e *Extractor) SetLightMode(on bool) error {
	opt := e.net.Option()
	opt.LightMode = on
	return e.SetOption(opt)
}

// Input binds m to the blob called name. The data is copied.
func (e *Extractor) Input(name string, m *Mat) error {
	h, err := e.handle()
	if err != nil {
		return err
	}
	if err := checkBlobName(name); err != nil {
		return err
	}
	if err := m.validate(); err != nil {
		return errors.Wrapf(err, "input %q", name)
	}
	if code := e.api.extractorInput(h, name, m); code != 0 {
		return &BlobError{Op: "input", Name: name, Code: code}
	}
	return nil
}

// Extract runs inference as far as needed to produce the blob called name
// and returns a copy of it. The call blocks until libncnn returns.
func (e *Extractor) Extract(name string) (*Mat, error) {
	h, err := e.handle()
	if err != nil {
		return nil, err
	}
	if err := checkBlobName(name); err != nil {
		return nil, err
	}
	m, code := e.api.extractorExtract(h, name)
	if code != 0 {
		return nil, &BlobError{Op: "extract", Name: name, Code: code}
	}
	return m, nil
}

// Close destroys the native extractor. It is idempotent and safe to call
// after the parent Net was closed.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.h == nil {
		return nil
	}
	e.api.extractorDestroy(e.h)
	e.h = nil
	runtime.SetFinalizer(e, nil)
	e.net.release()
	return nil
}

func checkBlobName(name string) error {
	if name == "" || strings.IndexByte(name, 0) >= 0 {
		return errors.Errorf("ncnn: invalid blob name %q", name)
	}
	return nil
}
