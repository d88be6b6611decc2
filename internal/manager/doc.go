// Package manager provides lifecycle, admission, and inference coordination for
// ncnn model instances. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: internal state types (State, ModelInfo, Instance, Snapshot).
//   - errors.go: error types and helpers (IsTooBusy, IsModelNotFound, ...).
//   - helpers.go: small utilities (model lookup, memory estimation).
//   - adapter_iface.go: InferenceAdapter and Session, the runtime seam.
//   - adapter_ncnn.go: the adapter backed by pkg/ncnn.
//   - admission.go: per-instance queueing and single in-flight admission.
//   - ensure.go: EnsureInstance lazy loading.
//   - evict.go: LRU eviction to fit within the memory budget.
//   - infer.go: Infer entry point.
//   - unload.go: Unload and Close.
//   - status_report.go: Status/Snapshot reporting helpers.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - usage.go: UsageStore seam for load and inference accounting.
//
// Native engine:
//
// The ncnn adapter calls into libncnn only when the binary is built with
// `-tags ncnn` and cgo. Otherwise every load fails with a dependency
// unavailable error, which the HTTP layer maps to 503.
//
// Each instance owns one ncnn.Net. Native calls on an instance are
// serialized by the single in-flight slot; separate instances run in
// parallel. A running native call cannot be interrupted: cancellation is
// observed before admission, before each extract and after the run.
package manager
