//go:build ncnn && cgo

package ncnn

// cgo link directives for libncnn.
// - Include and library paths come from ncnn.pc (pkg-config).
// - option_ext.cpp reaches into ncnn::Option, so the C++ runtime is linked.
/*
#cgo pkg-config: ncnn
#cgo CXXFLAGS: -std=c++11
#cgo LDFLAGS: -lstdc++
#include <stdlib.h>
#include <ncnn/c_api.h>
#include "option_ext.h"

extern size_t ncnndGoRead(ncnn_datareader_t dr, void* buf, size_t size);

static void ncnnd_bind_reader(ncnn_datareader_t dr) { dr->read = ncnndGoRead; }

static void ncnnd_net_set_vulkan_device(ncnn_net_t net, int device)
{
#if NCNN_VULKAN
    if (device >= 0)
        ncnn_net_set_vulkan_device(net, device);
#endif
}
*/
import "C"

import (
	"io"
	"sync"
	"unsafe"
)

// cgoAPI forwards to libncnn's C API.
type cgoAPI struct{}

func newNativeAPI() capi { return cgoAPI{} }

func cnet(h netHandle) C.ncnn_net_t { return C.ncnn_net_t(unsafe.Pointer(h)) }

func cex(h extractorHandle) C.ncnn_extractor_t { return C.ncnn_extractor_t(unsafe.Pointer(h)) }

func (cgoAPI) version() string { return C.GoString(C.ncnn_version()) }

func (cgoAPI) netCreate() (netHandle, error) {
	n := C.ncnn_net_create()
	if n == nil {
		return nil, ErrAllocFailed
	}
	return netHandle(unsafe.Pointer(n)), nil
}

func (cgoAPI) netDestroy(h netHandle) { C.ncnn_net_destroy(cnet(h)) }

// newNativeOption materializes opt; the caller destroys it after applying.
func newNativeOption(opt Option) C.ncnn_option_t {
	o := C.ncnn_option_create()
	if o == nil {
		return nil
	}
	if opt.NumThreads > 0 {
		C.ncnn_option_set_num_threads(o, C.int(opt.NumThreads))
	}
	C.ncnn_option_set_use_local_pool_allocator(o, C.int(boolToInt(opt.UseLocalPoolAllocator)))
	C.ncnn_option_set_use_vulkan_compute(o, C.int(boolToInt(opt.UseVulkanCompute)))
	C.ncnnd_option_set_flags(o,
		C.int(boolToInt(opt.LightMode)),
		C.int(boolToInt(opt.UseFP16Packed)),
		C.int(boolToInt(opt.UseFP16Storage)),
		C.int(boolToInt(opt.UseFP16Arithmetic)),
		C.int(boolToInt(opt.UseInt8Inference)),
		C.int(boolToInt(opt.UsePackingLayout)),
	)
	return o
}

func (cgoAPI) netSetOption(h netHandle, opt Option) {
	o := newNativeOption(opt)
	if o == nil {
		return
	}
	defer C.ncnn_option_destroy(o)
	// ncnn copies the option into the net.
	C.ncnn_net_set_option(cnet(h), o)
	if opt.UseVulkanCompute {
		C.ncnnd_net_set_vulkan_device(cnet(h), C.int(opt.VulkanDevice))
	}
}

func callWithPath(path string, fn func(*C.char) C.int) int {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	return int(fn(cPath))
}

func (cgoAPI) netLoadParam(h netHandle, path string) int {
	return callWithPath(path, func(p *C.char) C.int { return C.ncnn_net_load_param(cnet(h), p) })
}

func (cgoAPI) netLoadParamBin(h netHandle, path string) int {
	return callWithPath(path, func(p *C.char) C.int { return C.ncnn_net_load_param_bin(cnet(h), p) })
}

func (cgoAPI) netLoadModel(h netHandle, path string) int {
	return callWithPath(path, func(p *C.char) C.int { return C.ncnn_net_load_model(cnet(h), p) })
}

// liveReaders maps a native datareader to the Go reader serving it. Entries
// live exactly as long as one load call.
var liveReaders sync.Map

// withDataReader creates a native datareader whose read callback pulls from
// r. ncnn keeps its own C++ object in pthis, so the reader is looked up by
// the datareader address instead.
func withDataReader(r io.Reader, load func(C.ncnn_datareader_t) C.int) int {
	dr := C.ncnn_datareader_create()
	if dr == nil {
		return -1
	}
	defer C.ncnn_datareader_destroy(dr)
	C.ncnnd_bind_reader(dr)
	key := uintptr(unsafe.Pointer(dr))
	liveReaders.Store(key, r)
	defer liveReaders.Delete(key)
	return int(load(dr))
}

func (cgoAPI) netLoadParamBinReader(h netHandle, r io.Reader) int {
	return withDataReader(r, func(dr C.ncnn_datareader_t) C.int {
		return C.ncnn_net_load_param_bin_datareader(cnet(h), dr)
	})
}

func (cgoAPI) netLoadModelReader(h netHandle, r io.Reader) int {
	return withDataReader(r, func(dr C.ncnn_datareader_t) C.int {
		return C.ncnn_net_load_model_datareader(cnet(h), dr)
	})
}

func (cgoAPI) netInputNames(h netHandle) []string {
	count := int(C.ncnn_net_get_input_count(cnet(h)))
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, C.GoString(C.ncnn_net_get_input_name(cnet(h), C.int(i))))
	}
	return names
}

func (cgoAPI) netOutputNames(h netHandle) []string {
	count := int(C.ncnn_net_get_output_count(cnet(h)))
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, C.GoString(C.ncnn_net_get_output_name(cnet(h), C.int(i))))
	}
	return names
}

func (cgoAPI) extractorCreate(h netHandle) extractorHandle {
	ex := C.ncnn_extractor_create(cnet(h))
	if ex == nil {
		return nil
	}
	return extractorHandle(unsafe.Pointer(ex))
}

func (cgoAPI) extractorDestroy(h extractorHandle) { C.ncnn_extractor_destroy(cex(h)) }

func (cgoAPI) extractorSetOption(h extractorHandle, opt Option) {
	o := newNativeOption(opt)
	if o == nil {
		return
	}
	defer C.ncnn_option_destroy(o)
	C.ncnn_extractor_set_option(cex(h), o)
}

func newNativeMat(m *Mat) C.ncnn_mat_t {
	switch m.Dims() {
	case 1:
		return C.ncnn_mat_create_1d(C.int(m.W), nil)
	case 2:
		return C.ncnn_mat_create_2d(C.int(m.W), C.int(m.H), nil)
	case 4:
		return C.ncnn_mat_create_4d(C.int(m.W), C.int(m.H), C.int(m.D), C.int(m.C), nil)
	default:
		return C.ncnn_mat_create_3d(C.int(m.W), C.int(m.H), C.int(m.C), nil)
	}
}

func (cgoAPI) extractorInput(h extractorHandle, name string, m *Mat) int {
	cm := newNativeMat(m)
	if cm == nil {
		return -100
	}
	// The extractor takes its own reference to the mat data.
	defer C.ncnn_mat_destroy(cm)
	n := m.ChannelLen()
	for q := 0; q < m.C; q++ {
		dst := unsafe.Slice((*float32)(C.ncnn_mat_get_channel_data(cm, C.int(q))), n)
		copy(dst, m.Channel(q))
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return int(C.ncnn_extractor_input(cex(h), cName, cm))
}

func (cgoAPI) extractorExtract(h extractorHandle, name string) (*Mat, int) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	var out C.ncnn_mat_t
	code := int(C.ncnn_extractor_extract(cex(h), cName, &out))
	if out != nil {
		defer C.ncnn_mat_destroy(out)
	}
	if code != 0 {
		return nil, code
	}
	dims := int(C.ncnn_mat_get_dims(out))
	// Extract converts to fp32 with elempack 1 by default.
	if dims == 0 || C.ncnn_mat_get_elempack(out) != 1 || C.ncnn_mat_get_elemsize(out) != 4 {
		return nil, codeUnsupportedLayout
	}
	m := newMat(dims,
		max(int(C.ncnn_mat_get_w(out)), 1),
		max(int(C.ncnn_mat_get_h(out)), 1),
		max(int(C.ncnn_mat_get_d(out)), 1),
		max(int(C.ncnn_mat_get_c(out)), 1),
		nil)
	n := m.ChannelLen()
	for q := 0; q < m.C; q++ {
		src := unsafe.Slice((*float32)(C.ncnn_mat_get_channel_data(out, C.int(q))), n)
		copy(m.Channel(q), src)
	}
	return m, 0
}
