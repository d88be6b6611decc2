package types

// InferRequest represents an inference request payload.
type InferRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: squeezenet
	Model string `json:"model,omitempty" example:"squeezenet"`
	// Input tensors keyed by blob name.
	Inputs map[string]Tensor `json:"inputs"`
	// Output blob names to extract. Empty means the topology's outputs.
	// example: ["prob"]
	Outputs []string `json:"outputs,omitempty"`
	// Overrides the server's light mode for this request.
	// example: true
	LightMode *bool `json:"light_mode,omitempty" example:"true"`
}

// InferResponse carries the extracted blobs.
type InferResponse struct {
	// Request identifier.
	// example: 5f0c6f0e-2f7a-4c1b-9a51-3f0f2d1c9b7e
	ID string `json:"id" example:"5f0c6f0e-2f7a-4c1b-9a51-3f0f2d1c9b7e"`
	// example: squeezenet
	Model string `json:"model" example:"squeezenet"`
	// Extracted tensors keyed by blob name.
	Outputs map[string]Tensor `json:"outputs"`
	// Wall time spent in the engine, milliseconds.
	// example: 12
	DurationMS int64 `json:"duration_ms" example:"12"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// InstanceStatus summarizes a loaded instance for /status.
type InstanceStatus struct {
	// ID of the model this instance serves.
	// example: squeezenet
	ModelID string `json:"model_id" example:"squeezenet"`
	// Current lifecycle state of the instance (loading, ready, draining).
	// example: ready
	State string `json:"state" example:"ready"`
	// Last time this instance served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Estimated resident memory in MB (weights size).
	// example: 5
	EstMemMB int `json:"est_mem_mb" example:"5"`
	// Current queue length for incoming requests.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Number of in-flight requests currently being processed.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Inferences served since the instance was loaded.
	// example: 40
	Inferences uint64 `json:"inferences" example:"40"`
}

// ModelUsage is the persisted load and inference accounting of one model.
type ModelUsage struct {
	// example: squeezenet
	ModelID string `json:"model_id" example:"squeezenet"`
	// example: 3
	Loads int64 `json:"loads" example:"3"`
	// example: 120
	Inferences int64 `json:"inferences" example:"120"`
	// Sum of engine time across inferences, milliseconds.
	// example: 1440
	TotalInferMS int64 `json:"total_infer_ms" example:"1440"`
	// Unix seconds; 0 when never loaded.
	// example: 1700000000
	LastLoaded int64 `json:"last_loaded" example:"1700000000"`
	// Unix seconds; 0 when never used.
	// example: 1700000100
	LastUsed int64 `json:"last_used" example:"1700000100"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Loaded instances.
	Instances []InstanceStatus `json:"instances"`
	// Memory budget in MB across all instances; 0 means unlimited.
	// example: 2048
	BudgetMB int `json:"budget_mb" example:"2048"`
	// Estimated used memory in MB.
	// example: 512
	UsedMB int `json:"used_est_mb" example:"512"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total number of evictions performed to stay within budget.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Total number of model loads.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Overall manager state (ready, loading, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// ncnn library version, or "unavailable" without the native engine.
	// example: 1.0.20240410
	EngineVersion string `json:"engine_version" example:"1.0.20240410"`
	// Persisted usage, most recently used first. Omitted without a usage
	// database.
	Usage []ModelUsage `json:"usage,omitempty"`
}
