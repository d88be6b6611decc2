package ncnn

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unsafe"
)

// fakeAPI is an in-memory stand-in for libncnn. It parses text topologies
// with ParseParam, accepts any readable weights file once a topology is
// loaded, and "infers" by doubling the first bound input.
type fakeAPI struct {
	netsCreated, netsDestroyed int
	exCreated, exDestroyed     int
	loadedPaths                []string
	netOption                  Option
	exOption                   Option
	// onLoad runs after a path load has read the file.
	onLoad func(path string)
}

type fakeNet struct {
	param   *ParamInfo
	binary  bool
	weights []byte
}

type fakeExtractor struct {
	net    *fakeNet
	inputs map[string]*Mat
	order  []string
}

func toFakeNet(h netHandle) *fakeNet { return (*fakeNet)(unsafe.Pointer(h)) }

func toFakeEx(h extractorHandle) *fakeExtractor { return (*fakeExtractor)(unsafe.Pointer(h)) }

func (f *fakeAPI) version() string { return "fake" }

func (f *fakeAPI) netCreate() (netHandle, error) {
	f.netsCreated++
	return netHandle(unsafe.Pointer(&fakeNet{})), nil
}

func (f *fakeAPI) netDestroy(netHandle) { f.netsDestroyed++ }

func (f *fakeAPI) netSetOption(_ netHandle, opt Option) { f.netOption = opt }

func (f *fakeAPI) readPath(path string) ([]byte, bool) {
	f.loadedPaths = append(f.loadedPaths, path)
	b, err := os.ReadFile(path)
	if f.onLoad != nil {
		f.onLoad(path)
	}
	return b, err == nil
}

func (f *fakeAPI) netLoadParam(h netHandle, path string) int {
	b, ok := f.readPath(path)
	if !ok {
		return -1
	}
	info, err := ParseParam(bytes.NewReader(b))
	if err != nil {
		return -1
	}
	toFakeNet(h).param = info
	return 0
}

func (f *fakeAPI) netLoadParamBin(h netHandle, path string) int {
	b, ok := f.readPath(path)
	if !ok {
		return -1
	}
	return f.loadParamBin(h, bytes.NewReader(b))
}

func (f *fakeAPI) loadParamBin(h netHandle, r io.Reader) int {
	var magic [4]byte
	if fillChunk(r, magic[:]) != 4 || binary.LittleEndian.Uint32(magic[:]) != paramMagic {
		return -1
	}
	fn := toFakeNet(h)
	fn.binary = true
	fn.param = &ParamInfo{blobs: map[string]struct{}{}}
	return 0
}

func (f *fakeAPI) netLoadModel(h netHandle, path string) int {
	if toFakeNet(h).param == nil {
		return -1
	}
	b, ok := f.readPath(path)
	if !ok {
		return -1
	}
	toFakeNet(h).weights = b
	return 0
}

func (f *fakeAPI) netLoadParamBinReader(h netHandle, r io.Reader) int { return f.loadParamBin(h, r) }

func (f *fakeAPI) netLoadModelReader(h netHandle, r io.Reader) int {
	fn := toFakeNet(h)
	if fn.param == nil {
		return -1
	}
	var w []byte
	buf := make([]byte, 8)
	for {
		n := fillChunk(r, buf)
		w = append(w, buf[:n]...)
		if n < len(buf) {
			break
		}
	}
	if len(w) == 0 {
		return -1
	}
	fn.weights = w
	return 0
}

func (f *fakeAPI) netInputNames(h netHandle) []string {
	if p := toFakeNet(h).param; p != nil {
		return p.Inputs
	}
	return nil
}

func (f *fakeAPI) netOutputNames(h netHandle) []string {
	if p := toFakeNet(h).param; p != nil {
		return p.Outputs
	}
	return nil
}

func (f *fakeAPI) extractorCreate(h netHandle) extractorHandle {
	f.exCreated++
	return extractorHandle(unsafe.Pointer(&fakeExtractor{net: toFakeNet(h), inputs: map[string]*Mat{}}))
}

func (f *fakeAPI) extractorDestroy(extractorHandle) { f.exDestroyed++ }

func (f *fakeAPI) extractorSetOption(_ extractorHandle, opt Option) { f.exOption = opt }

func (f *fakeAPI) extractorInput(h extractorHandle, name string, m *Mat) int {
	ex := toFakeEx(h)
	if ex.net.param == nil || !ex.net.param.HasBlob(name) {
		return codeBlobNotFound
	}
	cp := *m
	cp.Data = append([]float32(nil), m.Data...)
	if _, seen := ex.inputs[name]; !seen {
		ex.order = append(ex.order, name)
	}
	ex.inputs[name] = &cp
	return 0
}

func (f *fakeAPI) extractorExtract(h extractorHandle, name string) (*Mat, int) {
	ex := toFakeEx(h)
	if ex.net.param == nil || !ex.net.param.HasBlob(name) {
		return nil, codeBlobNotFound
	}
	if len(ex.order) == 0 || ex.net.weights == nil {
		return nil, -100
	}
	in := ex.inputs[ex.order[0]]
	out := newMat(in.Dims(), in.W, in.H, in.D, in.C, nil)
	for i, v := range in.Data {
		out.Data[i] = 2 * v
	}
	return out, 0
}

const testParam = `7767517
3 3
Input            data             0 1 data 0=4 1=1 2=1
ReLU             relu1            1 1 data relu1
Softmax          prob             1 1 relu1 prob 0=0
`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}
