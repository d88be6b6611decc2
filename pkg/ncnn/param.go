package ncnn

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// paramMagic is the first line of every ncnn text topology.
const paramMagic = 7767517

// Layer is one line of a text topology.
type Layer struct {
	Type    string
	Name    string
	Bottoms []string
	Tops    []string
	// Params holds the raw "id=value" tokens.
	Params []string
}

// ParamInfo summarizes a text topology without loading it into libncnn.
type ParamInfo struct {
	LayerCount int
	BlobCount  int
	Layers     []Layer
	// Inputs are the tops of Input layers, in declaration order.
	Inputs []string
	// Outputs are blobs produced by some layer and consumed by none.
	Outputs []string

	blobs map[string]struct{}
}

// HasBlob reports whether name is produced by any layer.
func (p *ParamInfo) HasBlob(name string) bool {
	_, ok := p.blobs[name]
	return ok
}

// InspectParam parses the text topology at path.
func InspectParam(path string) (*ParamInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := ParseParam(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return info, nil
}

// ParseParam reads an ncnn text topology: the magic line, "layer_count
// blob_count", then one layer per line as
// "type name bottom_count top_count bottoms... tops... params...".
func ParseParam(r io.Reader) (*ParamInfo, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	lineNo := 0
	next := func() ([]string, bool) {
		for s.Scan() {
			lineNo++
			if f := strings.Fields(s.Text()); len(f) > 0 {
				return f, true
			}
		}
		return nil, false
	}

	f, ok := next()
	if !ok {
		return nil, errors.New("empty param")
	}
	if magic, err := strconv.Atoi(f[0]); err != nil || magic != paramMagic {
		return nil, errors.Errorf("line %d: bad magic %q", lineNo, f[0])
	}
	f, ok = next()
	if !ok || len(f) < 2 {
		return nil, errors.Errorf("line %d: missing layer and blob counts", lineNo)
	}
	layerCount, err1 := strconv.Atoi(f[0])
	blobCount, err2 := strconv.Atoi(f[1])
	if err1 != nil || err2 != nil || layerCount <= 0 || blobCount <= 0 {
		return nil, errors.Errorf("line %d: invalid counts %q", lineNo, strings.Join(f, " "))
	}

	info := &ParamInfo{
		LayerCount: layerCount,
		BlobCount:  blobCount,
		Layers:     make([]Layer, 0, layerCount),
		blobs:      make(map[string]struct{}, blobCount),
	}
	consumed := make(map[string]struct{}, blobCount)
	var produced []string
	for len(info.Layers) < layerCount {
		f, ok := next()
		if !ok {
			break
		}
		if len(f) < 4 {
			return nil, errors.Errorf("line %d: layer needs type, name and blob counts", lineNo)
		}
		nb, err1 := strconv.Atoi(f[2])
		nt, err2 := strconv.Atoi(f[3])
		if err1 != nil || err2 != nil || nb < 0 || nt < 0 || len(f) < 4+nb+nt {
			return nil, errors.Errorf("line %d: invalid blob counts for layer %q", lineNo, f[1])
		}
		l := Layer{
			Type:    f[0],
			Name:    f[1],
			Bottoms: f[4 : 4+nb],
			Tops:    f[4+nb : 4+nb+nt],
			Params:  f[4+nb+nt:],
		}
		for _, b := range l.Bottoms {
			consumed[b] = struct{}{}
		}
		for _, t := range l.Tops {
			if _, dup := info.blobs[t]; !dup {
				info.blobs[t] = struct{}{}
				produced = append(produced, t)
			}
		}
		if l.Type == "Input" {
			info.Inputs = append(info.Inputs, l.Tops...)
		}
		info.Layers = append(info.Layers, l)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "read param")
	}
	if len(info.Layers) != layerCount {
		return nil, errors.Errorf("declared %d layers, found %d", layerCount, len(info.Layers))
	}
	for _, b := range produced {
		if _, ok := consumed[b]; !ok {
			info.Outputs = append(info.Outputs, b)
		}
	}
	return info, nil
}
