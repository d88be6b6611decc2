package types

// Model is an ncnn network discovered on disk: a topology file paired with
// its weights.
type Model struct {
	// Stable identifier for the model (topology basename).
	// example: squeezenet
	ID string `json:"id" example:"squeezenet"`
	// Human-friendly name.
	// example: squeezenet
	Name string `json:"name" example:"squeezenet"`
	// Absolute path to the topology file.
	// example: /home/user/models/squeezenet.param
	ParamPath string `json:"param_path" example:"/home/user/models/squeezenet.param"`
	// Absolute path to the weights file.
	// example: /home/user/models/squeezenet.bin
	WeightsPath string `json:"weights_path" example:"/home/user/models/squeezenet.bin"`
	// True when the topology is in ncnn's binary param format.
	// example: false
	BinaryParam bool `json:"binary_param" example:"false"`
	// Size of the weights file in bytes.
	// example: 4953600
	WeightsBytes int64 `json:"weights_bytes" example:"4953600"`
	// Input blob names (text topologies only).
	// example: ["data"]
	Inputs []string `json:"inputs,omitempty"`
	// Output blob names (text topologies only).
	// example: ["prob"]
	Outputs []string `json:"outputs,omitempty"`
	// Number of layers declared by the topology (text topologies only).
	// example: 66
	Layers int `json:"layers,omitempty" example:"66"`
}

// Tensor is an fp32 tensor with an outermost-first shape: [w], [h w],
// [c h w] or [c d h w].
type Tensor struct {
	// example: [3,227,227]
	Shape []int `json:"shape"`
	// Row-major values; len must equal the product of Shape.
	Data []float32 `json:"data"`
}
