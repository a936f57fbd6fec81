package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gashuhttp "github.com/aretw0/gashu/pkg/adapters/http"
	"github.com/aretw0/gashu/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	GlobalOptions
	// Addr overrides server.addr from the config.
	Addr string
}

// RunServe starts the chat HTTP server and blocks until SIGINT/SIGTERM.
func RunServe(opts ServeOptions) error {
	cfg, logger, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := createApp(sigCtx, cfg, logger, BuildOptions{Debug: opts.Debug})
	if err != nil {
		return err
	}
	defer app.Close()

	handlerOpts := []gashuhttp.Option{
		gashuhttp.WithLogger(logger),
		gashuhttp.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		handlerOpts = append(handlerOpts, gashuhttp.WithCORSOrigins(cfg.Server.CORSOrigins...))
	}

	return serveHTTP(sigCtx, cfg.Server.Addr, gashuhttp.NewHandler(app.Engine, handlerOpts...), logger)
}

// serveHTTP runs h on addr until ctx is done, then shuts down gracefully.
func serveHTTP(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	GlobalOptions
	// Port selects SSE transport; zero serves on stdio.
	Port int
}

// RunMCP exposes the engine as MCP tools.
func RunMCP(opts MCPOptions) error {
	cfg, logger, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := createApp(sigCtx, cfg, logger, BuildOptions{Debug: opts.Debug})
	if err != nil {
		return err
	}
	defer app.Close()

	srv := mcp.NewServer(app.Engine, logger)
	if opts.Port > 0 {
		return srv.ServeSSE(sigCtx, opts.Port)
	}
	return srv.ServeStdio()
}
