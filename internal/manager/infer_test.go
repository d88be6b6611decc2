package manager

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

func TestInferReturnsOutputs(t *testing.T) {
	usage := newFakeUsage()
	m, fa := newTestManager(t, ManagerConfig{Registry: []types.Model{model("m", 1)}, DefaultModel: "m", Usage: usage})
	m.newID = func() string { return "req-1" }
	light := false
	resp, err := m.Infer(testCtx(t), types.InferRequest{Inputs: oneInput(1, 2), Outputs: []string{"prob"}, LightMode: &light})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if resp.ID != "req-1" || resp.Model != "m" {
		t.Fatalf("unexpected response header: %+v", resp)
	}
	out, ok := resp.Outputs["prob"]
	if !ok || len(out.Data) != 2 || out.Data[0] != 2 || out.Data[1] != 4 {
		t.Fatalf("unexpected outputs: %+v", resp.Outputs)
	}
	if fa.lastReq.LightMode == nil || *fa.lastReq.LightMode {
		t.Fatalf("light mode override not forwarded")
	}
	if usage.loads["m"] != 1 || usage.inferences["m"] != 1 {
		t.Fatalf("usage not recorded: %+v %+v", usage.loads, usage.inferences)
	}
	if st := m.Status(); st.Instances[0].Inferences != 1 {
		t.Fatalf("expected inference counted, got %+v", st.Instances[0])
	}
}

func TestInferNoDefaultModelError(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	_, err := m.Infer(context.Background(), types.InferRequest{Inputs: oneInput(1)})
	if err == nil || !IsModelNotFound(err) {
		t.Fatalf("expected model not found for unspecified model without default, got %v", err)
	}
}

func TestInferBadRequest(t *testing.T) {
	m, fa := newTestManager(t, ManagerConfig{Registry: []types.Model{model("m", 1)}})
	tooWide := math.MaxInt32
	tooWide++
	cases := []types.InferRequest{
		{Model: "m"},
		{Model: "m", Inputs: map[string]types.Tensor{"": {Shape: []int{1}, Data: []float32{1}}}},
		{Model: "m", Inputs: map[string]types.Tensor{"data": {Data: []float32{1}}}},
		{Model: "m", Inputs: map[string]types.Tensor{"data": {Shape: []int{2, 2}, Data: []float32{1}}}},
		{Model: "m", Inputs: map[string]types.Tensor{"data": {Shape: []int{tooWide}}}},
		{Model: "m", Inputs: map[string]types.Tensor{"data": {Shape: []int{math.MaxInt32, math.MaxInt32, math.MaxInt32}}}},
	}
	for i, req := range cases {
		if _, err := m.Infer(context.Background(), req); !IsBadRequest(err) {
			t.Fatalf("case %d: expected bad request, got %v", i, err)
		}
	}
	if fa.loadCount() != 0 {
		t.Fatalf("invalid requests must not trigger a load")
	}
}

func TestInferPropagatesRunErrors(t *testing.T) {
	fa := &fakeAdapter{runErr: &ncnn.BlobError{Op: "extract", Name: "nope", Code: -1}}
	m, _ := newTestManager(t, ManagerConfig{Registry: []types.Model{model("m", 1)}, Adapter: fa})
	_, err := m.Infer(testCtx(t), types.InferRequest{Model: "m", Inputs: oneInput(1)})
	if !IsBlobNotFound(err) {
		t.Fatalf("expected blob not found, got %v", err)
	}
}

func TestInferBackpressureTooBusy(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{Registry: []types.Model{model("m", 1)}, MaxQueueDepth: 1, MaxWait: 10 * time.Millisecond})
	if err := m.EnsureInstance(context.Background(), "m"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	m.mu.RLock()
	inst := m.instances["m"]
	m.mu.RUnlock()
	inst.queueCh <- struct{}{}
	inst.genCh <- struct{}{}
	defer func() { <-inst.genCh; <-inst.queueCh }()

	_, err := m.Infer(context.Background(), types.InferRequest{Model: "m", Inputs: oneInput(1)})
	if err == nil || !IsTooBusy(err) {
		t.Fatalf("expected too busy error, got %v", err)
	}
}

func TestInferCanceledWhileQueued(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{Registry: []types.Model{model("m", 1)}, MaxQueueDepth: 4, MaxWait: time.Second})
	if err := m.EnsureInstance(context.Background(), "m"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	m.mu.RLock()
	inst := m.instances["m"]
	m.mu.RUnlock()
	inst.genCh <- struct{}{}
	defer func() { <-inst.genCh }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Infer(ctx, types.InferRequest{Model: "m", Inputs: oneInput(1)})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(inst.queueCh) != 0 {
		t.Fatalf("queue slot leaked")
	}
}

func TestInferSerializesPerInstance(t *testing.T) {
	fa := &fakeAdapter{runBlock: make(chan struct{})}
	m, _ := newTestManager(t, ManagerConfig{Registry: []types.Model{model("m", 1)}, Adapter: fa, MaxWait: time.Second})
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := m.Infer(testCtx(t), types.InferRequest{Model: "m", Inputs: oneInput(1)})
			done <- err
		}()
	}
	deadline := time.Now().Add(time.Second)
	for {
		st := m.Status()
		if len(st.Instances) == 1 && st.Instances[0].QueueLen == 2 && st.Instances[0].Inflight == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("requests never queued: %+v", st.Instances)
		}
		time.Sleep(5 * time.Millisecond)
	}
	fa.runBlock <- struct{}{}
	fa.runBlock <- struct{}{}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("infer: %v", err)
		}
	}
}
