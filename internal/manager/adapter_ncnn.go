package manager

import (
	"context"
	"fmt"
	"sort"

	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

// ncnnAdapter loads models into pkg/ncnn nets.
type ncnnAdapter struct{}

// NewNCNNAdapter returns the adapter backed by libncnn.
func NewNCNNAdapter() InferenceAdapter { return ncnnAdapter{} }

func (ncnnAdapter) Load(model types.Model, opt ncnn.Option) (Session, error) {
	net, err := ncnn.NewNet()
	if err != nil {
		if ncnn.IsDependencyUnavailable(err) {
			return nil, dependencyUnavailableError{msg: "ncnn support not built (missing 'ncnn' build tag)", err: err}
		}
		return nil, err
	}
	net.SetOption(opt)
	topo := ncnn.FromPath(model.ParamPath)
	if model.BinaryParam {
		topo = ncnn.FromBinaryPath(model.ParamPath)
	}
	if err := net.LoadTopology(topo); err != nil {
		_ = net.Close()
		return nil, fmt.Errorf("load %s: %w", model.ID, err)
	}
	if err := net.LoadWeights(ncnn.FromPath(model.WeightsPath)); err != nil {
		_ = net.Close()
		return nil, fmt.Errorf("load %s: %w", model.ID, err)
	}
	return &ncnnSession{net: net}, nil
}

type ncnnSession struct{ net *ncnn.Net }

func (s *ncnnSession) Run(ctx context.Context, req RunRequest) (map[string]types.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ex, err := s.net.NewExtractor()
	if err != nil {
		return nil, err
	}
	defer ex.Close()
	if req.LightMode != nil {
		if err := ex.SetLightMode(*req.LightMode); err != nil {
			return nil, err
		}
	}

	// Bind in a stable order so failures are reproducible.
	names := make([]string, 0, len(req.Inputs))
	for name := range req.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m, err := tensorToMat(name, req.Inputs[name])
		if err != nil {
			return nil, err
		}
		if err := ex.Input(name, m); err != nil {
			return nil, err
		}
	}

	outputs := req.Outputs
	if len(outputs) == 0 {
		outputs = s.net.OutputNames()
	}
	if len(outputs) == 0 {
		return nil, badRequestf("no outputs requested and the topology declares none")
	}
	res := make(map[string]types.Tensor, len(outputs))
	for _, name := range outputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := ex.Extract(name)
		if err != nil {
			return nil, err
		}
		res[name] = matToTensor(m)
	}
	return res, nil
}

func (s *ncnnSession) Close() error { return s.net.Close() }

func tensorToMat(name string, t types.Tensor) (*ncnn.Mat, error) {
	m, err := ncnn.MatFromShape(t.Shape, t.Data)
	if err != nil {
		return nil, badRequestf("input %q: %v", name, err)
	}
	return m, nil
}

func matToTensor(m *ncnn.Mat) types.Tensor {
	return types.Tensor{Shape: m.Shape(), Data: m.Data}
}
