package ncnn

import "github.com/rs/zerolog"

// logger is disabled until SetLogger is called.
var logger = zerolog.Nop()

// SetLogger installs a structured logger used for load and cleanup events.
func SetLogger(l zerolog.Logger) { logger = l }
