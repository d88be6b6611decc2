package manager

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

// Infer runs req against its model, loading it on first use. Admission is
// per-instance FIFO with a single native call in flight.
func (m *Manager) Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
	modelID, err := m.resolveModelID(req.Model)
	if err != nil {
		return types.InferResponse{}, err
	}
	if len(req.Inputs) == 0 {
		return types.InferResponse{}, badRequestf("at least one input is required")
	}
	for name, t := range req.Inputs {
		if name == "" {
			return types.InferResponse{}, badRequestf("input name must not be empty")
		}
		if len(t.Shape) == 0 {
			return types.InferResponse{}, badRequestf("input %q: shape is required", name)
		}
		n, err := ncnn.ShapeLen(t.Shape)
		if err != nil {
			return types.InferResponse{}, badRequestf("input %q: %v", name, err)
		}
		if len(t.Data) != n {
			return types.InferResponse{}, badRequestf("input %q: shape %v needs %d values, got %d", name, t.Shape, n, len(t.Data))
		}
	}

	// An instance evicted while this request was queued is reloaded once.
	for attempt := 0; ; attempt++ {
		inst, err := m.ensure(ctx, modelID)
		if err != nil {
			return types.InferResponse{}, err
		}
		resp, err := m.runOn(ctx, inst, req)
		if errors.Is(err, errInstanceGone) && attempt == 0 {
			continue
		}
		if errors.Is(err, errInstanceGone) {
			err = tooBusyError{modelID: modelID}
		}
		return resp, err
	}
}

func (m *Manager) runOn(ctx context.Context, inst *Instance, req types.InferRequest) (types.InferResponse, error) {
	release, err := m.beginInference(ctx, inst)
	if err != nil {
		return types.InferResponse{}, err
	}
	defer release()

	start := time.Now()
	out, err := inst.session.Run(ctx, RunRequest{Inputs: req.Inputs, Outputs: req.Outputs, LightMode: req.LightMode})
	dur := time.Since(start)
	if err != nil {
		m.log.Debug().Str("model", inst.ID).Err(err).Msg("inference failed")
		return types.InferResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.InferResponse{}, err
	}
	atomic.AddUint64(&inst.inferences, 1)
	if err := m.usage.RecordInference(context.WithoutCancel(ctx), inst.ID, dur, time.Now()); err != nil {
		m.log.Warn().Str("model", inst.ID).Err(err).Msg("usage record inference")
	}
	resp := types.InferResponse{
		ID:         m.newID(),
		Model:      inst.ID,
		Outputs:    out,
		DurationMS: dur.Milliseconds(),
	}
	m.log.Debug().Str("model", inst.ID).Str("id", resp.ID).Dur("dur", dur).Int("outputs", len(out)).Msg("inference done")
	return resp, nil
}
