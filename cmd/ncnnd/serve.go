package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ncnnd/internal/config"
	"ncnnd/internal/httpapi"
	"ncnnd/internal/manager"
	"ncnnd/internal/registry"
	"ncnnd/internal/usage"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		preload      bool
		inferTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP inference daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, preload, inferTimeout)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address (default :8080)")
	f.Int64("max-body-bytes", 0, "Max request body size in bytes (default 32MiB)")
	f.Bool("cors-enabled", false, "Enable CORS")
	f.String("cors-allowed-origins", "", "Comma-separated CORS origins")
	f.String("cors-allowed-methods", "", "Comma-separated CORS methods")
	f.String("cors-allowed-headers", "", "Comma-separated CORS headers")
	f.BoolVar(&preload, "preload", false, "Load the default model before accepting requests")
	f.DurationVar(&inferTimeout, "infer-timeout", 0, "Upper bound for one /infer including queueing (0 disables)")
	bindFlags(a.v, f, map[string]string{
		keyAddr:               "addr",
		keyMaxBodyBytes:       "max-body-bytes",
		keyCORSEnabled:        "cors-enabled",
		keyCORSAllowedOrigins: "cors-allowed-origins",
		keyCORSAllowedMethods: "cors-allowed-methods",
		keyCORSAllowedHeaders: "cors-allowed-headers",
	})
	return cmd
}

// newManager wires the registry, usage store and ncnn option from cfg. The
// returned cleanup closes the manager, then the store.
func newManager(a *app) (*manager.Manager, func(), error) {
	cfg := a.cfg
	reg, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load models: %w", err)
	}
	store, err := usage.Open(cfg.UsageDB)
	if err != nil {
		return nil, nil, err
	}
	opt := netOption(cfg)
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:      reg,
		BudgetMB:      cfg.MemBudgetMB,
		DefaultModel:  cfg.DefaultModel,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitSeconds) * time.Second,
		Option:        &opt,
		Usage:         store,
		Publisher:     manager.NewLogPublisher(a.log),
		Logger:        &a.log,
	})
	a.log.Info().Str("models_dir", cfg.ModelsDir).Int("models", len(reg)).Msg("registry loaded")
	cleanup := func() {
		if err := mgr.Close(); err != nil {
			a.log.Warn().Err(err).Msg("manager close")
		}
		if err := store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("usage store close")
		}
	}
	return mgr, cleanup, nil
}

func configureHTTP(a *app, cfg config.Config, inferTimeout time.Duration) {
	httpapi.SetLogger(a.log)
	httpapi.Configure(httpapi.Options{
		MaxBodyBytes: cfg.MaxBodyBytes,
		InferTimeout: inferTimeout,
		CORS: httpapi.CORSOptions{
			Enabled: cfg.CORSEnabled != nil && *cfg.CORSEnabled,
			Origins: cfg.CORSAllowedOrigins,
			Methods: cfg.CORSAllowedMethods,
			Headers: cfg.CORSAllowedHeaders,
		},
	})
}

func serve(ctx context.Context, a *app, preload bool, inferTimeout time.Duration) error {
	mgr, cleanup, err := newManager(a)
	if err != nil {
		return err
	}
	defer cleanup()
	if preload {
		if err := mgr.EnsureInstance(ctx, ""); err != nil {
			return fmt.Errorf("preload: %w", err)
		}
	}

	configureHTTP(a, a.cfg, inferTimeout)
	httpapi.SetBaseContext(ctx)
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("ncnnd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown")
		return err
	}
	return nil
}
