//go:build ncnn && cgo

package ncnn

// Exported callbacks live in their own file: a cgo preamble next to
// //export may only hold declarations.

/*
#include <ncnn/c_api.h>
*/
import "C"

import (
	"io"
	"unsafe"
)

// ncnndGoRead runs on a libncnn stack. A panic cannot unwind through the
// C++ frames, so it ends the stream instead.
//
//export ncnndGoRead
func ncnndGoRead(dr C.ncnn_datareader_t, buf unsafe.Pointer, size C.size_t) (n C.size_t) {
	defer func() {
		if v := recover(); v != nil {
			logger.Error().Interface("panic", v).Msg("ncnn datareader callback panicked")
			n = 0
		}
	}()
	v, ok := liveReaders.Load(uintptr(unsafe.Pointer(dr)))
	if !ok || size == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(buf), int(size))
	return C.size_t(fillChunk(v.(io.Reader), dst))
}
