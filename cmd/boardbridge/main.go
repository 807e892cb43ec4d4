// boardbridge is an MCP server that lets coding agents operate a remote
// project tracking service: reading and mutating work items, running
// queries, and reporting sprint progress.
//
// Usage:
//
//	boardbridge [-config path]    # start the MCP server on stdio
//
// Configuration comes from a YAML file and BOARDBRIDGE_* environment
// variables; the personal access token is environment-only
// (BOARDBRIDGE_ORGANIZATION_PAT).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/jonwraymond/boardbridge/ado"
	"github.com/jonwraymond/boardbridge/cache"
	"github.com/jonwraymond/boardbridge/config"
	"github.com/jonwraymond/boardbridge/health"
	"github.com/jonwraymond/boardbridge/observe"
	"github.com/jonwraymond/boardbridge/registry"
	"github.com/jonwraymond/boardbridge/resilience"
	"github.com/jonwraymond/boardbridge/server"
	"github.com/jonwraymond/boardbridge/services"
)

func main() {
	configPath := flag.String("config", "", "path to the config file (optional)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("boardbridge %s\n", server.Version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: server.Name,
		Version:     server.Version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Observability.Tracing.Enabled,
			Exporter:  cfg.Observability.Tracing.Exporter,
			SamplePct: cfg.Observability.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Observability.Metrics.Enabled,
			Exporter: cfg.Observability.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: cfg.Observability.Logging.Enabled,
			Level:   cfg.Observability.Logging.Level,
		},
	})
	if err != nil {
		return fmt.Errorf("setting up observability: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}()

	middleware, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("setting up middleware: %w", err)
	}

	auth, err := ado.NewAuth(cfg.Organization.URL, ado.WithPAT(cfg.Organization.PAT))
	if err != nil {
		return fmt.Errorf("setting up credentials: %w", err)
	}
	defer auth.Close()

	shared := cache.New(cache.Config{
		DefaultTTL:    cfg.Cache.TTL,
		MaxSize:       cfg.Cache.MaxSize,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	shared.StartSweeper(ctx)
	if err := observe.RegisterCacheMetrics(obs.Meter(), "shared", shared); err != nil {
		return fmt.Errorf("registering cache metrics: %w", err)
	}

	opMetrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return fmt.Errorf("setting up metrics: %w", err)
	}

	chain := resilience.NewChain(resilience.ChainConfig{
		Timeout: resilience.TimeoutConfig{Timeout: cfg.Resilience.OperationTimeout},
		Retry: resilience.RetryConfig{
			MaxRetries: cfg.Resilience.MaxRetries,
			BaseDelay:  cfg.Resilience.BaseDelay,
			MaxDelay:   cfg.Resilience.MaxDelay,
			Multiplier: cfg.Resilience.Multiplier,
			OnRetry: func(op string, attempt int, err error, delay time.Duration) {
				opMetrics.RecordRetry(ctx, observe.OpMeta{Name: op}, attempt)
				obs.Logger().Warn(ctx, "retrying operation",
					observe.Field{Key: "op", Value: op},
					observe.Field{Key: "attempt", Value: attempt},
					observe.Field{Key: "delay_ms", Value: float64(delay.Milliseconds())},
				)
			},
		},
	})

	reg := registry.New(cfg.Organization.DefaultProject, shared)
	reg.Register(registry.KindWorkItems, func(_ context.Context, project string) (any, error) {
		ns := cache.NewNamespace(shared, string(registry.KindWorkItems)+cache.Separator+project, 0)
		return services.NewWorkItems(auth.GetClient(ado.ClientWorkItems), project, chain, ns), nil
	})
	reg.Register(registry.KindSprints, func(_ context.Context, project string) (any, error) {
		ns := cache.NewNamespace(shared, string(registry.KindSprints)+cache.Separator+project, 0)
		return services.NewSprints(auth.GetClient(ado.ClientWork), project, chain, ns), nil
	})

	checks := health.NewAggregator(0)
	checks.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))
	checks.Register(health.NewCacheChecker(shared))
	checks.Register(health.NewCheckerFunc("credentials", func(ctx context.Context) health.Result {
		if err := auth.RefreshToken(ctx); err != nil {
			return health.Unhealthy("credential refresh failed", err)
		}
		return health.Healthy("credentials valid")
	}))

	s := server.New(&server.Deps{
		Registry:   reg,
		Middleware: middleware,
		Cache:      shared,
		Health:     checks,
	})

	obs.Logger().Info(ctx, "starting MCP server",
		observe.Field{Key: "organization", Value: cfg.Organization.URL},
		observe.Field{Key: "default_project", Value: cfg.Organization.DefaultProject},
	)

	return mcpserver.ServeStdio(s)
}
