package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by Defaults via Merge.
type Config struct {
	Addr           string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir      string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultModel   string `json:"default_model" yaml:"default_model" toml:"default_model"`
	Threads        int    `json:"threads" yaml:"threads" toml:"threads"`
	UseVulkan      *bool  `json:"use_vulkan" yaml:"use_vulkan" toml:"use_vulkan"`
	LightMode      *bool  `json:"light_mode" yaml:"light_mode" toml:"light_mode"`
	FP16           *bool  `json:"fp16" yaml:"fp16" toml:"fp16"`
	MemBudgetMB    int    `json:"mem_budget_mb" yaml:"mem_budget_mb" toml:"mem_budget_mb"`
	MaxQueueDepth  int    `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds int    `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	MaxBodyBytes   int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	UsageDB        string `json:"usage_db" yaml:"usage_db" toml:"usage_db"`
	LogLevel       string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled        *bool    `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Defaults returns the configuration used when nothing else is specified.
func Defaults() Config {
	return Config{
		Addr:           ":8080",
		ModelsDir:      "~/models/ncnn",
		Threads:        runtime.NumCPU(),
		UseVulkan:      Bool(false),
		LightMode:      Bool(true),
		FP16:           Bool(true),
		MaxQueueDepth:  32,
		MaxWaitSeconds: 30,
		MaxBodyBytes:   32 << 20,
		LogLevel:       "info",
		CORSEnabled:    Bool(false),
	}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Merge overlays the non-zero fields of over onto base.
func Merge(base, over Config) Config {
	out := base
	if over.Addr != "" {
		out.Addr = over.Addr
	}
	if over.ModelsDir != "" {
		out.ModelsDir = over.ModelsDir
	}
	if over.DefaultModel != "" {
		out.DefaultModel = over.DefaultModel
	}
	if over.Threads > 0 {
		out.Threads = over.Threads
	}
	if over.UseVulkan != nil {
		out.UseVulkan = over.UseVulkan
	}
	if over.LightMode != nil {
		out.LightMode = over.LightMode
	}
	if over.FP16 != nil {
		out.FP16 = over.FP16
	}
	if over.MemBudgetMB > 0 {
		out.MemBudgetMB = over.MemBudgetMB
	}
	if over.MaxQueueDepth > 0 {
		out.MaxQueueDepth = over.MaxQueueDepth
	}
	if over.MaxWaitSeconds > 0 {
		out.MaxWaitSeconds = over.MaxWaitSeconds
	}
	if over.MaxBodyBytes > 0 {
		out.MaxBodyBytes = over.MaxBodyBytes
	}
	if over.UsageDB != "" {
		out.UsageDB = over.UsageDB
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	if over.CORSEnabled != nil {
		out.CORSEnabled = over.CORSEnabled
	}
	if len(over.CORSAllowedOrigins) > 0 {
		out.CORSAllowedOrigins = over.CORSAllowedOrigins
	}
	if len(over.CORSAllowedMethods) > 0 {
		out.CORSAllowedMethods = over.CORSAllowedMethods
	}
	if len(over.CORSAllowedHeaders) > 0 {
		out.CORSAllowedHeaders = over.CORSAllowedHeaders
	}
	return out
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir is required")
	}
	if c.Threads < 0 || c.MemBudgetMB < 0 || c.MaxQueueDepth < 0 || c.MaxWaitSeconds < 0 || c.MaxBodyBytes < 0 {
		return fmt.Errorf("numeric settings must not be negative")
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
