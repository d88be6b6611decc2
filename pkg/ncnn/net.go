package ncnn

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Net owns a native ncnn network: topology, weights and execution options.
type Net struct {
	api capi

	mu     sync.Mutex
	h      netHandle
	opt    Option
	refs   int // live extractors
	closed bool
}

// NewNet allocates a native net. It fails with ErrDependencyUnavailable in
// builds without the 'ncnn' tag and with ErrAllocFailed if libncnn returns
// NULL.
func NewNet() (*Net, error) { return newNet(nativeAPI) }

func newNet(api capi) (*Net, error) {
	h, err := api.netCreate()
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrAllocFailed
	}
	n := &Net{api: api, h: h, opt: DefaultOption()}
	runtime.SetFinalizer(n, func(n *Net) { _ = n.Close() })
	return n, nil
}

func (n *Net) handle() (netHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrNetClosed
	}
	return n.h, nil
}

func (n *Net) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// SetOption applies opt to the net. It must be called before loading to
// take effect for layer creation. A closed net ignores it.
func (n *Net) SetOption(opt Option) {
	h, err := n.handle()
	if err != nil {
		return
	}
	n.api.netSetOption(h, opt)
	n.mu.Lock()
	n.opt = opt
	n.mu.Unlock()
}

// Option returns the option last applied with SetOption.
func (n *Net) Option() Option {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.opt
}

// LoadTopology loads the network structure ("param") from src.
func (n *Net) LoadTopology(src Source) error {
	h, err := n.handle()
	if err != nil {
		return err
	}
	kind, load, suffix := KindParam, n.api.netLoadParam, suffixParam
	if src.binary {
		kind, load, suffix = KindParamBin, n.api.netLoadParamBin, suffixParamBin
	}
	switch src.kind {
	case sourcePath:
		return n.loadPath(h, kind, src.path, load)
	case sourceBytes:
		return n.loadBytes(h, kind, src.data, suffix, load)
	default:
		if src.binary {
			return n.loadReader(h, kind, src.r, n.api.netLoadParamBinReader)
		}
		// The text format is parsed with the native scan callback, which
		// cannot be served from Go. Buffer it instead.
		b, err := io.ReadAll(src.r)
		if err != nil {
			return &LoadError{Kind: kind, Source: src.String(), Err: errors.Wrap(err, "read param stream")}
		}
		return n.loadBytes(h, kind, b, suffix, load)
	}
}

// LoadWeights loads the network weights ("model", usually *.bin) from src.
func (n *Net) LoadWeights(src Source) error {
	h, err := n.handle()
	if err != nil {
		return err
	}
	switch src.kind {
	case sourcePath:
		return n.loadPath(h, KindModel, src.path, n.api.netLoadModel)
	case sourceBytes:
		return n.loadBytes(h, KindModel, src.data, suffixModel, n.api.netLoadModel)
	default:
		return n.loadReader(h, KindModel, src.r, n.api.netLoadModelReader)
	}
}

// LoadParam loads a text topology from path.
func (n *Net) LoadParam(path string) error { return n.LoadTopology(FromPath(path)) }

// LoadParamBin loads a binary topology from path.
func (n *Net) LoadParamBin(path string) error { return n.LoadTopology(FromBinaryPath(path)) }

// LoadParamFromBytes loads a text topology held in memory.
func (n *Net) LoadParamFromBytes(b []byte) error { return n.LoadTopology(FromBytes(b)) }

// LoadModel loads weights from path.
func (n *Net) LoadModel(path string) error { return n.LoadWeights(FromPath(path)) }

// LoadModelFromBytes loads weights held in memory.
func (n *Net) LoadModelFromBytes(b []byte) error { return n.LoadWeights(FromBytes(b)) }

// LoadModelFromReader streams weights from r.
func (n *Net) LoadModelFromReader(r io.Reader) error { return n.LoadWeights(FromReader(r)) }

func (n *Net) loadPath(h netHandle, kind LoadKind, path string, load func(netHandle, string) int) error {
	if strings.IndexByte(path, 0) >= 0 {
		return &LoadError{Kind: kind, Source: path, Err: errors.New("path contains NUL byte")}
	}
	if code := load(h, path); code != 0 {
		logger.Debug().Str("kind", string(kind)).Str("path", path).Int("code", code).Msg("ncnn load failed")
		return &LoadError{Kind: kind, Source: path, Code: code}
	}
	logger.Debug().Str("kind", string(kind)).Str("path", path).Msg("ncnn loaded")
	return nil
}

// loadBytes bridges an in-memory buffer through a temporary file. The file
// is removed whether or not the load succeeded. A load failure takes
// precedence over a removal failure; a removal failure after a successful
// load is reported as *CleanupError.
func (n *Net) loadBytes(h netHandle, kind LoadKind, data []byte, suffix string, load func(netHandle, string) int) error {
	path, err := writeTempFile(data, suffix)
	if err != nil {
		return &LoadError{Kind: kind, Source: "<bytes>", Err: err}
	}
	loadErr := n.loadPath(h, kind, path, load)
	rmErr := os.Remove(path)
	if rmErr != nil && os.IsNotExist(rmErr) {
		rmErr = nil
	}
	if loadErr != nil {
		if rmErr != nil {
			var le *LoadError
			if errors.As(loadErr, &le) {
				le.CleanupErr = rmErr
			}
		}
		return loadErr
	}
	if rmErr != nil {
		logger.Warn().Err(rmErr).Str("path", path).Msg("ncnn temp file not removed")
		return &CleanupError{Path: path, Err: rmErr}
	}
	return nil
}

func (n *Net) loadReader(h netHandle, kind LoadKind, r io.Reader, load func(netHandle, io.Reader) int) error {
	if r == nil {
		return &LoadError{Kind: kind, Source: "<reader>", Err: errors.New("nil reader")}
	}
	tr := &trackingReader{r: r}
	if code := load(h, tr); code != 0 {
		le := &LoadError{Kind: kind, Source: "<reader>", Code: code}
		if tr.err != nil {
			le.Err = errors.Wrapf(tr.err, "after %d bytes", tr.n)
		}
		return le
	}
	logger.Debug().Str("kind", string(kind)).Int64("bytes", tr.n).Msg("ncnn loaded from reader")
	return nil
}

// InputNames lists the topology's input blob names. Empty before a
// topology is loaded.
func (n *Net) InputNames() []string {
	h, err := n.handle()
	if err != nil {
		return nil
	}
	return n.api.netInputNames(h)
}

// OutputNames lists the topology's output blob names.
func (n *Net) OutputNames() []string {
	h, err := n.handle()
	if err != nil {
		return nil
	}
	return n.api.netOutputNames(h)
}

// NewExtractor creates an inference context bound to n.
func (n *Net) NewExtractor() (*Extractor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrNetClosed
	}
	eh := n.api.extractorCreate(n.h)
	if eh == nil {
		return nil, ErrAllocFailed
	}
	n.refs++
	ex := &Extractor{net: n, api: n.api, h: eh}
	runtime.SetFinalizer(ex, func(ex *Extractor) { _ = ex.Close() })
	return ex, nil
}

// Close releases the net. The native net is destroyed once every extractor
// created from it has been closed. Close is idempotent.
func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	runtime.SetFinalizer(n, nil)
	n.destroyLocked()
	return nil
}

func (n *Net) release() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refs--
	if n.closed {
		n.destroyLocked()
	}
}

func (n *Net) destroyLocked() {
	if n.refs > 0 || n.h == nil {
		return
	}
	n.api.netDestroy(n.h)
	n.h = nil
}
