package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ncnnd/internal/common/fsutil"
	"ncnnd/pkg/ncnn"
	"ncnnd/pkg/types"
)

const (
	extParam    = ".param"
	extParamBin = ".param.bin"
	extWeights  = ".bin"
)

// LoadDir scans a directory for ncnn topologies (*.param text, *.param.bin
// binary) that have a matching *.bin weights file. The ID is the file name
// without the topology suffix. Text topologies are inspected for their
// input and output blobs; a topology that fails to parse is skipped.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	byID := map[string]types.Model{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var id, ext string
		var binary bool
		switch {
		case strings.HasSuffix(name, extParamBin):
			id, ext, binary = strings.TrimSuffix(name, extParamBin), extParamBin, true
		case strings.HasSuffix(name, extParam):
			id, ext = strings.TrimSuffix(name, extParam), extParam
		default:
			continue
		}
		if id == "" {
			continue
		}
		// Text wins when both formats ship.
		if prev, ok := byID[id]; ok && !prev.BinaryParam {
			continue
		}
		paramPath := filepath.Join(abs, name)
		weights := fsutil.SwapExt(paramPath, ext, extWeights)
		st, err := os.Stat(weights)
		if err != nil || st.IsDir() {
			continue
		}
		m := types.Model{
			ID:           id,
			Name:         id,
			ParamPath:    paramPath,
			WeightsPath:  weights,
			BinaryParam:  binary,
			WeightsBytes: st.Size(),
		}
		if !binary {
			info, err := ncnn.InspectParam(paramPath)
			if err != nil {
				continue
			}
			m.Inputs, m.Outputs, m.Layers = info.Inputs, info.Outputs, info.LayerCount
		}
		byID[id] = m
	}
	models := make([]types.Model, 0, len(byID))
	for _, m := range byID {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}
