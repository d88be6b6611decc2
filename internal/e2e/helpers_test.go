package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ncnnd/internal/httpapi"
	"ncnnd/internal/manager"
	"ncnnd/internal/registry"
	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

const testParam = `7767517
3 3
Input            data             0 1 data 0=4 1=1 2=1
ReLU             relu1            1 1 data relu1
Softmax          prob             1 1 relu1 prob 0=0
`

// createTempModelsDir writes a text topology and a small weights file for
// every id and returns the directory.
func createTempModelsDir(t *testing.T, ids ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, id := range ids {
		if err := os.WriteFile(filepath.Join(dir, id+".param"), []byte(testParam), 0o644); err != nil {
			t.Fatalf("write param %s: %v", id, err)
		}
		if err := os.WriteFile(filepath.Join(dir, id+".bin"), make([]byte, 1024), 0o644); err != nil {
			t.Fatalf("write weights %s: %v", id, err)
		}
	}
	return dir
}

// doublingAdapter serves every requested output as the first input
// doubled. A non-nil gate blocks each Run until it is closed.
type doublingAdapter struct {
	gate chan struct{}

	mu    sync.Mutex
	loads int
}

func (a *doublingAdapter) Load(types.Model, ncnn.Option) (manager.Session, error) {
	a.mu.Lock()
	a.loads++
	a.mu.Unlock()
	return &doublingSession{gate: a.gate}, nil
}

type doublingSession struct{ gate chan struct{} }

func (s *doublingSession) Run(ctx context.Context, req manager.RunRequest) (map[string]types.Tensor, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	var in types.Tensor
	for _, t := range req.Inputs {
		in = t
		break
	}
	outs := req.Outputs
	if len(outs) == 0 {
		outs = []string{"prob"}
	}
	res := make(map[string]types.Tensor, len(outs))
	for _, name := range outs {
		d := make([]float32, len(in.Data))
		for i, v := range in.Data {
			d[i] = 2 * v
		}
		res[name] = types.Tensor{Shape: append([]int(nil), in.Shape...), Data: d}
	}
	return res, nil
}

func (s *doublingSession) Close() error { return nil }

// newServerForDirWithConfig scans modelsDir and serves a manager built
// from cfg.
func newServerForDirWithConfig(t *testing.T, modelsDir string, cfg manager.ManagerConfig) (*httptest.Server, *manager.Manager) {
	t.Helper()
	reg, err := registry.LoadDir(modelsDir)
	if err != nil {
		t.Fatalf("scan models: %v", err)
	}
	cfg.Registry = reg
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return do(t, req)
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
