package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ncnnd/internal/common/fsutil"
	"ncnnd/internal/config"
	"ncnnd/pkg/ncnn"
)

// Viper keys. They match the config file field names; env vars are the
// upper-cased key with an NCNND_ prefix.
const (
	keyConfig             = "config"
	keyAddr               = "addr"
	keyModelsDir          = "models_dir"
	keyDefaultModel       = "default_model"
	keyThreads            = "threads"
	keyUseVulkan          = "use_vulkan"
	keyLightMode          = "light_mode"
	keyFP16               = "fp16"
	keyMemBudgetMB        = "mem_budget_mb"
	keyMaxQueueDepth      = "max_queue_depth"
	keyMaxWaitSeconds     = "max_wait_seconds"
	keyMaxBodyBytes       = "max_body_bytes"
	keyUsageDB            = "usage_db"
	keyLogLevel           = "log_level"
	keyLogFormat          = "log_format"
	keyCORSEnabled        = "cors_enabled"
	keyCORSAllowedOrigins = "cors_allowed_origins"
	keyCORSAllowedMethods = "cors_allowed_methods"
	keyCORSAllowedHeaders = "cors_allowed_headers"
)

// app carries state shared by subcommands once the root pre-run resolved it.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&app{v: viper.New()}) }

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ncnnd",
		Short:         "Serve and run ncnn models",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			l, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, a.v.GetString(keyLogFormat))
			if err != nil {
				return err
			}
			a.log = l
			ncnn.SetLogger(l.With().Str("component", "ncnn").Logger())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.String("log-level", "", "Log level: debug|info|warn|error (default info)")
	pf.String("log-format", "json", "Log format: json|console")
	pf.String("models-dir", "", "Directory scanned for *.param / *.param.bin with matching *.bin (default ~/models/ncnn)")
	pf.String("default-model", "", "Model id used when a request omits one")
	pf.Int("threads", 0, "CPU threads per net (default: number of CPUs)")
	pf.Bool("use-vulkan", false, "Enable Vulkan compute when libncnn supports it")
	pf.Bool("light-mode", true, "Recycle intermediate blobs during extraction")
	pf.Bool("fp16", true, "Enable fp16 packed, storage and arithmetic")
	pf.Int("mem-budget-mb", 0, "Memory budget for loaded nets in MB (0 disables eviction)")
	pf.Int("max-queue-depth", 0, "Queued requests per model before 429 (default 32)")
	pf.Int("max-wait-seconds", 0, "Max seconds a request waits for admission (default 30)")
	pf.String("usage-db", "", "SQLite file for usage accounting (empty disables)")
	bindFlags(a.v, pf, map[string]string{
		keyConfig:         "config",
		keyLogLevel:       "log-level",
		keyLogFormat:      "log-format",
		keyModelsDir:      "models-dir",
		keyDefaultModel:   "default-model",
		keyThreads:        "threads",
		keyUseVulkan:      "use-vulkan",
		keyLightMode:      "light-mode",
		keyFP16:           "fp16",
		keyMemBudgetMB:    "mem-budget-mb",
		keyMaxQueueDepth:  "max-queue-depth",
		keyMaxWaitSeconds: "max-wait-seconds",
		keyUsageDB:        "usage-db",
	})
	a.v.SetEnvPrefix("NCNND")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(newServeCmd(a), newInspectCmd(), newRunCmd(a), newUsageCmd(a), newVersionCmd())
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// resolveConfig layers defaults, the config file, NCNND_* env vars and
// explicitly set flags, in that order.
func resolveConfig(v *viper.Viper) (config.Config, error) {
	cfg := config.Defaults()
	if path := v.GetString(keyConfig); path != "" {
		p, err := fsutil.ExpandHome(path)
		if err != nil {
			return config.Config{}, err
		}
		fc, err := config.Load(p)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Merge(cfg, fc)
	}
	cfg = config.Merge(cfg, overrides(v))
	for _, p := range []*string{&cfg.ModelsDir, &cfg.UsageDB} {
		if *p == "" {
			continue
		}
		exp, err := fsutil.ExpandHome(*p)
		if err != nil {
			return config.Config{}, err
		}
		*p = exp
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// overrides collects the settings given through env or changed flags.
func overrides(v *viper.Viper) config.Config {
	var o config.Config
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	flag := func(key string, dst **bool) {
		if v.IsSet(key) {
			*dst = config.Bool(v.GetBool(key))
		}
	}
	list := func(key string, dst *[]string) {
		if v.IsSet(key) {
			*dst = splitCSV(v.GetString(key))
		}
	}
	str(keyAddr, &o.Addr)
	str(keyModelsDir, &o.ModelsDir)
	str(keyDefaultModel, &o.DefaultModel)
	str(keyUsageDB, &o.UsageDB)
	str(keyLogLevel, &o.LogLevel)
	num(keyThreads, &o.Threads)
	num(keyMemBudgetMB, &o.MemBudgetMB)
	num(keyMaxQueueDepth, &o.MaxQueueDepth)
	num(keyMaxWaitSeconds, &o.MaxWaitSeconds)
	if v.IsSet(keyMaxBodyBytes) {
		o.MaxBodyBytes = v.GetInt64(keyMaxBodyBytes)
	}
	flag(keyUseVulkan, &o.UseVulkan)
	flag(keyLightMode, &o.LightMode)
	flag(keyFP16, &o.FP16)
	flag(keyCORSEnabled, &o.CORSEnabled)
	list(keyCORSAllowedOrigins, &o.CORSAllowedOrigins)
	list(keyCORSAllowedMethods, &o.CORSAllowedMethods)
	list(keyCORSAllowedHeaders, &o.CORSAllowedHeaders)
	return o
}

// netOption derives the ncnn option applied to every loaded net.
func netOption(cfg config.Config) ncnn.Option {
	opt := ncnn.DefaultOption()
	if cfg.Threads > 0 {
		opt.NumThreads = cfg.Threads
	}
	if cfg.UseVulkan != nil {
		opt.UseVulkanCompute = *cfg.UseVulkan
	}
	if cfg.LightMode != nil {
		opt.LightMode = *cfg.LightMode
	}
	if cfg.FP16 != nil {
		opt = opt.WithFP16(*cfg.FP16)
	}
	return opt
}

// splitCSV splits a comma-separated list, trimming blanks and dropping
// empty items.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
