package httpapi

import "time"

// defaultMaxBodyBytes fits a few inlined float32 tensors as JSON arrays.
const defaultMaxBodyBytes int64 = 32 << 20

var (
	maxBodyBytes = defaultMaxBodyBytes
	// inferTimeout bounds admission plus run of one /infer; zero disables.
	inferTimeout time.Duration

	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// Options configures the HTTP layer. Zero values keep the defaults.
type Options struct {
	MaxBodyBytes int64
	InferTimeout time.Duration
	CORS         CORSOptions
	// RequestLogLevel is off|error|info|debug; empty keeps NCNND_HTTP_LOG.
	RequestLogLevel string
}

// CORSOptions enables CORS when Enabled is set; empty lists use the
// middleware defaults.
type CORSOptions struct {
	Enabled bool
	Origins []string
	Methods []string
	Headers []string
}

// Configure applies o. It must be called before NewMux.
func Configure(o Options) {
	SetMaxBodyBytes(o.MaxBodyBytes)
	SetInferTimeout(o.InferTimeout)
	SetCORSOptions(o.CORS.Enabled, o.CORS.Origins, o.CORS.Methods, o.CORS.Headers)
	if o.RequestLogLevel != "" {
		SetRequestLogLevel(o.RequestLogLevel)
	}
}

// SetMaxBodyBytes sets the request body limit; n <= 0 restores the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBodyBytes
	}
	maxBodyBytes = n
}

// SetInferTimeout bounds each /infer call; d <= 0 disables the bound.
func SetInferTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	inferTimeout = d
}

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
