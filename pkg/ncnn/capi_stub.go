//go:build !ncnn || !cgo

package ncnn

import "io"

// stubAPI is compiled when the 'ncnn' build tag is NOT set. Construction fails
// fast so nothing below it is ever reached with a live handle.
type stubAPI struct{}

func newNativeAPI() capi { return stubAPI{} }

func (stubAPI) version() string { return "unavailable" }

func (stubAPI) netCreate() (netHandle, error) { return nil, ErrDependencyUnavailable }

func (stubAPI) netDestroy(netHandle) {}
func (stubAPI) netSetOption(netHandle, Option) {}
func (stubAPI) netLoadParam(netHandle, string) int { return -1 }
func (stubAPI) netLoadParamBin(netHandle, string) int { return -1 }
func (stubAPI) netLoadModel(netHandle, string) int { return -1 }
func (stubAPI) netLoadParamBinReader(netHandle, io.Reader) int { return -1 }
func (stubAPI) netLoadModelReader(netHandle, io.Reader) int { return -1 }
func (stubAPI) netInputNames(netHandle) []string { return nil }
func (stubAPI) netOutputNames(netHandle) []string { return nil }

func (stubAPI) extractorCreate(netHandle) extractorHandle { return nil }
func (stubAPI) extractorDestroy(extractorHandle) {}
func (stubAPI) extractorSetOption(extractorHandle, Option) {}
func (stubAPI) extractorInput(extractorHandle, string, *Mat) int { return -1 }

func (stubAPI) extractorExtract(extractorHandle, string) (*Mat, int) { return nil, -1 }
