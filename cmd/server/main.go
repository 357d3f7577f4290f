// Command server runs the ApplyXSLTTransformation function as a standalone
// HTTP service, or as an Azure Functions custom handler when
// FUNCTIONS_CUSTOMHANDLER_PORT is set.
//
// Per-invocation settings are read from the environment on every request:
//
//	StorageAccountConnString - stylesheet store connection string
//	ContainerName            - container holding the stylesheets
//
// Everything else comes from the config file (--config, XSLTFN_CONFIG,
// ./config.yaml, /etc/xsltfn/config.yaml) and XSLTFN_* overrides.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rhuss/xsltfn/pkg/auth"
	"github.com/rhuss/xsltfn/pkg/auth/functionkey"
	"github.com/rhuss/xsltfn/pkg/config"
	"github.com/rhuss/xsltfn/pkg/debug"
	"github.com/rhuss/xsltfn/pkg/observability"
	"github.com/rhuss/xsltfn/pkg/pipeline"
	"github.com/rhuss/xsltfn/pkg/storage"
	"github.com/rhuss/xsltfn/pkg/storage/azure"
	"github.com/rhuss/xsltfn/pkg/storage/local"
	"github.com/rhuss/xsltfn/pkg/storage/memory"
	"github.com/rhuss/xsltfn/pkg/storage/postgres"
	"github.com/rhuss/xsltfn/pkg/transport"
	transporthttp "github.com/rhuss/xsltfn/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	seedDir := flag.String("seed", "", "directory of stylesheets to load into the postgres store at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	debug.Init(os.Stderr, debug.Settings{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Observability.Tracing.ServiceName,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		Insecure:    cfg.Observability.Tracing.Insecure,
		Headers:     cfg.Observability.Tracing.Headers,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("flushing traces", "error", err)
		}
	}()

	source := config.NewEnvSource(cfg)

	if err := preparePostgres(ctx, cfg, source, *seedDir); err != nil {
		return err
	}

	registry := storage.NewRegistry(
		memory.New(),
		local.Driver{},
		postgres.Driver{},
		&azure.Driver{},
	)
	slog.Info("storage drivers registered", "drivers", registry.Drivers())

	pipe := pipeline.New(source, registry, pipeline.Options{
		Timeout:     cfg.Transform.Timeout,
		MaxBodySize: cfg.Server.MaxBodySize,
	})

	adapter := transporthttp.NewAdapter(pipe,
		transporthttp.Config{FunctionMiddleware: functionMiddleware(cfg)},
		transport.Recovery(),
		transport.Logging(slog.Default()),
	)
	if cfg.Observability.Metrics.Enabled {
		adapter.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	srv := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithHandlerWrapper(func(h http.Handler) http.Handler {
			return otelhttp.NewHandler(h, "xsltfn",
				otelhttp.WithFilter(func(r *http.Request) bool {
					return r.URL.Path == transporthttp.FunctionRoute
				}))
		}),
	)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"auth", cfg.Auth.Type,
		"transform_timeout", cfg.Transform.Timeout,
		"metrics", cfg.Observability.Metrics.Enabled,
		"tracing", cfg.Observability.Tracing.Endpoint != "",
	)

	return srv.Run(ctx)
}

// functionMiddleware builds the middleware stack for the function route,
// outermost first.
func functionMiddleware(cfg *config.Config) []func(http.Handler) http.Handler {
	var mws []func(http.Handler) http.Handler
	if cfg.Observability.Metrics.Enabled {
		mws = append(mws, observability.MetricsMiddleware)
	}
	if cfg.Auth.Type == "function" {
		keys := make([]functionkey.RawKey, 0, len(cfg.Auth.FunctionKeys))
		for _, k := range cfg.Auth.FunctionKeys {
			keys = append(keys, functionkey.RawKey{Name: k.Name, Key: k.Key})
		}
		mws = append(mws, auth.Middleware(&auth.AuthChain{
			Authenticators:  []auth.Authenticator{functionkey.New(keys)},
			DefaultDecision: auth.No,
		}))
		slog.Info("function key authentication enabled", "keys", len(keys))
	}
	return mws
}
