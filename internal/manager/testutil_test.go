package manager

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

// createModelFile creates a file of approximately sizeMB megabytes and returns its path.
func createModelFile(t *testing.T, dir, name string, sizeMB int) string {
	t.Helper()
	if sizeMB <= 0 {
		sizeMB = 1
	}
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()
	block := make([]byte, 1024*1024)
	for i := 0; i < sizeMB; i++ {
		if _, err := f.Write(block); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return p
}

// model builds a registry entry whose weights weigh sizeMB.
func model(id string, sizeMB int) types.Model {
	return types.Model{ID: id, Name: id, ParamPath: id + ".param", WeightsPath: id + ".bin", WeightsBytes: int64(sizeMB) << 20}
}

// fakeAdapter is a lightweight in-memory adapter used for tests. Sessions
// return the first input (by name) doubled under every requested output.
type fakeAdapter struct {
	mu        sync.Mutex
	loadErr   error
	runErr    error
	loadDelay time.Duration
	runBlock  chan struct{}
	loads     []string
	closed    []string
	lastOpt   ncnn.Option
	lastReq   RunRequest
}

func (f *fakeAdapter) Load(mdl types.Model, opt ncnn.Option) (Session, error) {
	if f.loadDelay > 0 {
		time.Sleep(f.loadDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, mdl.ID)
	f.lastOpt = opt
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &fakeSession{f: f, id: mdl.ID}, nil
}

func (f *fakeAdapter) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func (f *fakeAdapter) closedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

type fakeSession struct {
	f    *fakeAdapter
	id   string
	once sync.Once
}

func (s *fakeSession) Run(ctx context.Context, req RunRequest) (map[string]types.Tensor, error) {
	if s.f.runBlock != nil {
		select {
		case <-s.f.runBlock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.f.mu.Lock()
	s.f.lastReq = req
	err := s.f.runErr
	s.f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(req.Inputs))
	for n := range req.Inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	in := req.Inputs[names[0]]
	outs := req.Outputs
	if len(outs) == 0 {
		outs = []string{"out"}
	}
	res := map[string]types.Tensor{}
	for _, o := range outs {
		d := make([]float32, len(in.Data))
		for i, v := range in.Data {
			d[i] = 2 * v
		}
		res[o] = types.Tensor{Shape: append([]int(nil), in.Shape...), Data: d}
	}
	return res, nil
}

func (s *fakeSession) Close() error {
	s.once.Do(func() {
		s.f.mu.Lock()
		s.f.closed = append(s.f.closed, s.id)
		s.f.mu.Unlock()
	})
	return nil
}

// fakeUsage counts usage callbacks.
type fakeUsage struct {
	mu         sync.Mutex
	loads      map[string]int
	inferences map[string]int
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{loads: map[string]int{}, inferences: map[string]int{}}
}

func (u *fakeUsage) RecordLoad(_ context.Context, id string, _ time.Time) error {
	u.mu.Lock()
	u.loads[id]++
	u.mu.Unlock()
	return nil
}

func (u *fakeUsage) RecordInference(_ context.Context, id string, _ time.Duration, _ time.Time) error {
	u.mu.Lock()
	u.inferences[id]++
	u.mu.Unlock()
	return nil
}

func (u *fakeUsage) Usage(context.Context) ([]types.ModelUsage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	ids := make([]string, 0, len(u.loads))
	for id := range u.loads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]types.ModelUsage, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.ModelUsage{ModelID: id, Loads: int64(u.loads[id]), Inferences: int64(u.inferences[id])})
	}
	return out, nil
}

func newTestManager(t *testing.T, cfg ManagerConfig) (*Manager, *fakeAdapter) {
	t.Helper()
	fa, ok := cfg.Adapter.(*fakeAdapter)
	if !ok || fa == nil {
		fa = &fakeAdapter{}
		cfg.Adapter = fa
	}
	m := NewWithConfig(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m, fa
}

func oneInput(v ...float32) map[string]types.Tensor {
	return map[string]types.Tensor{"data": {Shape: []int{len(v)}, Data: v}}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
