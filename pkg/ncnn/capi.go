package ncnn

import (
	"io"
	"unsafe"
)

// Opaque native handles. They are only ever converted back to native types
// by the boundary implementation that produced them.
type (
	netHandle       unsafe.Pointer
	extractorHandle unsafe.Pointer
)

// capi is the native boundary. The cgo implementation (capi_ncnn.go) is
// compiled with the 'ncnn' build tag; capi_stub.go otherwise.
type capi interface {
	version() string

	netCreate() (netHandle, error)
	netDestroy(n netHandle)
	netSetOption(n netHandle, opt Option)
	netLoadParam(n netHandle, path string) int
	netLoadParamBin(n netHandle, path string) int
	netLoadModel(n netHandle, path string) int
	// Streaming loads. The reader is pinned for the duration of the call.
	netLoadParamBinReader(n netHandle, r io.Reader) int
	netLoadModelReader(n netHandle, r io.Reader) int
	netInputNames(n netHandle) []string
	netOutputNames(n netHandle) []string

	extractorCreate(n netHandle) extractorHandle
	extractorDestroy(ex extractorHandle)
	extractorSetOption(ex extractorHandle, opt Option)
	extractorInput(ex extractorHandle, name string, m *Mat) int
	extractorExtract(ex extractorHandle, name string) (*Mat, int)
}

// nativeAPI is the boundary used by NewNet.
var nativeAPI capi = newNativeAPI()

// Version returns the version string reported by libncnn, or "unavailable"
// when built without the native boundary.
func Version() string { return nativeAPI.version() }
