package ncnn

import "runtime"

// Option is the execution configuration applied to a Net or an Extractor.
// Fields map one-to-one onto ncnn::Option; no validation is performed beyond
// what libncnn does.
type Option struct {
	// NumThreads is the CPU thread count (ncnn default: physical big cores).
	NumThreads int
	// UseVulkanCompute enables the Vulkan GPU backend when libncnn was
	// built with it.
	UseVulkanCompute bool
	// VulkanDevice selects the GPU index; negative means the default device.
	VulkanDevice int
	// UseLocalPoolAllocator enables ncnn's per-net pool allocators.
	UseLocalPoolAllocator bool
	// LightMode recycles intermediate blobs during extraction.
	LightMode bool

	UseFP16Packed     bool
	UseFP16Storage    bool
	UseFP16Arithmetic bool
	UseInt8Inference  bool
	UsePackingLayout  bool
}

// DefaultOption mirrors ncnn::Option's defaults.
func DefaultOption() Option {
	return Option{
		NumThreads:            runtime.NumCPU(),
		VulkanDevice:          -1,
		UseLocalPoolAllocator: true,
		LightMode:             true,
		UseFP16Packed:         true,
		UseFP16Storage:        true,
		UseFP16Arithmetic:     true,
		UseInt8Inference:      true,
		UsePackingLayout:      true,
	}
}

// WithFP16 toggles every half-precision flag at once.
func (o Option) WithFP16(on bool) Option {
	o.UseFP16Packed = on
	o.UseFP16Storage = on
	o.UseFP16Arithmetic = on
	return o
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
