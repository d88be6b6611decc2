package usage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ncnnd/internal/manager"
	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

var _ manager.UsageStore = (*Store)(nil)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "usage.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "usage.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database not created: %v", err)
	}
}

func TestRecordLoadAndInference(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := s.RecordLoad(ctx, "squeeze", t0); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}
	if err := s.RecordInference(ctx, "squeeze", 40*time.Millisecond, t0.Add(time.Second)); err != nil {
		t.Fatalf("RecordInference: %v", err)
	}
	if err := s.RecordInference(ctx, "squeeze", 60*time.Millisecond, t0.Add(2*time.Second)); err != nil {
		t.Fatalf("RecordInference: %v", err)
	}
	if err := s.RecordLoad(ctx, "squeeze", t0.Add(3*time.Second)); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}

	rec, ok, err := s.Get(ctx, "squeeze")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if rec.Loads != 2 || rec.Inferences != 2 || rec.TotalInferMS != 100 {
		t.Fatalf("unexpected counts: %+v", rec)
	}
	if !rec.LastLoadedAt.Equal(t0.Add(3 * time.Second)) {
		t.Fatalf("last loaded = %v", rec.LastLoadedAt)
	}
	if !rec.LastUsedAt.Equal(t0.Add(3 * time.Second)) {
		t.Fatalf("last used = %v", rec.LastUsedAt)
	}
}

func TestInferenceBeforeLoadLeavesLoadTimeEmpty(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.RecordInference(ctx, "m", time.Millisecond, time.Now()); err != nil {
		t.Fatalf("RecordInference: %v", err)
	}
	rec, ok, err := s.Get(ctx, "m")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if rec.Loads != 0 || !rec.LastLoadedAt.IsZero() {
		t.Fatalf("expected no load info, got %+v", rec)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("expected not found, ok=%v err=%v", ok, err)
	}
}

func TestAllOrderedByLastUse(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 500ms sorts after 0s and before 1s only with fixed-width fractions.
	_ = s.RecordLoad(ctx, "a", t0)
	_ = s.RecordLoad(ctx, "b", t0.Add(time.Second))
	_ = s.RecordLoad(ctx, "c", t0.Add(500*time.Millisecond))

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ModelID)
	}
	if len(ids) != 3 || ids[0] != "b" || ids[1] != "c" || ids[2] != "a" {
		t.Fatalf("order = %v", ids)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	ctx := context.Background()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.RecordLoad(ctx, "m", time.Now())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	rec, ok, err := s.Get(ctx, "m")
	if err != nil || !ok || rec.Loads != 1 {
		t.Fatalf("after reopen: %+v ok=%v err=%v", rec, ok, err)
	}
}

func TestEmptyPathIsNoop(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := s.RecordLoad(ctx, "m", time.Now()); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}
	if err := s.RecordInference(ctx, "m", time.Second, time.Now()); err != nil {
		t.Fatalf("RecordInference: %v", err)
	}
	if _, ok, err := s.Get(ctx, "m"); ok || err != nil {
		t.Fatalf("noop Get: ok=%v err=%v", ok, err)
	}
	if all, err := s.All(ctx); len(all) != 0 || err != nil {
		t.Fatalf("noop All: %v %v", all, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTemp(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.RecordLoad(context.Background(), "m", time.Now()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestUsageRecords(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.RecordInference(ctx, "cold", 5*time.Millisecond, t0); err != nil {
		t.Fatalf("RecordInference: %v", err)
	}
	if err := s.RecordLoad(ctx, "warm", t0.Add(time.Minute)); err != nil {
		t.Fatalf("RecordLoad: %v", err)
	}
	got, err := s.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if len(got) != 2 || got[0].ModelID != "warm" || got[1].ModelID != "cold" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].LastLoaded != t0.Add(time.Minute).Unix() || got[1].LastLoaded != 0 || got[1].TotalInferMS != 5 {
		t.Fatalf("unexpected records: %+v", got)
	}

	empty, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if recs, err := empty.Usage(ctx); recs != nil || err != nil {
		t.Fatalf("noop Usage: %v %v", recs, err)
	}
}

type echoAdapter struct{}

func (echoAdapter) Load(types.Model, ncnn.Option) (manager.Session, error) { return echoSession{}, nil }

type echoSession struct{}

func (echoSession) Run(_ context.Context, req manager.RunRequest) (map[string]types.Tensor, error) {
	return req.Inputs, nil
}

func (echoSession) Close() error { return nil }

func TestManagerStatusReportsStoredUsage(t *testing.T) {
	s := openTemp(t)
	m := manager.NewWithConfig(manager.ManagerConfig{
		Registry: []types.Model{{ID: "m", ParamPath: "m.param", WeightsPath: "m.bin"}},
		Adapter:  echoAdapter{},
		Usage:    s,
	})
	defer m.Close()
	req := types.InferRequest{Model: "m", Inputs: map[string]types.Tensor{"data": {Shape: []int{1}, Data: []float32{1}}}, Outputs: []string{"data"}}
	if _, err := m.Infer(context.Background(), req); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	st := m.Status()
	if len(st.Usage) != 1 || st.Usage[0].ModelID != "m" || st.Usage[0].Loads != 1 || st.Usage[0].Inferences != 1 {
		t.Fatalf("unexpected usage: %+v", st.Usage)
	}
}
