package e2e

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// <root>/internal/e2e/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// buildBinary compiles ncnnd without the native engine.
func buildBinary(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "ncnnd")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/ncnnd")
	cmd.Dir = projectRoot(t)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build failed: %v\n%s", err, out)
	}
	return bin
}

// startServer runs "ncnnd serve" and waits for /healthz.
func startServer(t *testing.T, bin string, args ...string) string {
	t.Helper()
	port := findFreePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	args = append([]string{"serve", "--addr", fmt.Sprintf("127.0.0.1:%d", port)}, args...)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
		}
	})
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return base
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestBlackbox_Flow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the ncnnd binary")
	}
	bin := buildBinary(t)
	dir := createTempModelsDir(t, "alpha", "beta")
	base := startServer(t, bin, "--models-dir", dir, "--default-model", "alpha", "--log-level", "warn")

	resp, body := httpGet(t, base+"/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("/models content-type=%s", ct)
	}
	if !strings.Contains(string(body), `"alpha"`) || !strings.Contains(string(body), `"beta"`) {
		t.Fatalf("/models missing entries: %s", body)
	}

	resp, body = httpGet(t, base+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/readyz initial %d %s", resp.StatusCode, body)
	}

	// CGO_ENABLED=0 builds carry no native engine.
	resp, body = httpPostJSON(t, base+"/infer", []byte(inferData))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("/infer expected 503, got %d %s", resp.StatusCode, body)
	}

	resp, body = httpPostJSON(t, base+"/infer", []byte(`{"model":"missing","inputs":{"data":{"shape":[1],"data":[1]}}}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d, body=%s", resp.StatusCode, body)
	}

	resp, body = httpGet(t, base+"/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ncnnd_http_requests_total") {
		t.Fatalf("/metrics %d", resp.StatusCode)
	}
}
