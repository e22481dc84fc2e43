package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abdhe/inspirai/pkg/busy"
	"github.com/abdhe/inspirai/pkg/config"
	"github.com/abdhe/inspirai/pkg/server"
	"github.com/abdhe/inspirai/pkg/tracer"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC APIs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, settings)
	},
}

func serve(ctx context.Context, s *config.Settings) error {
	slog.Info("starting inspirai", "version", Version, "http", s.HTTP.Addr, "grpc", s.GRPC.Addr, "model", s.Gemini.Model)

	if _, err := config.NewResolver().Resolve(); err != nil {
		// Not fatal: the key is read per request and may be supplied later.
		slog.Warn("provider credential missing; generation requests will fail until it is set", "error", err)
	}

	// -------------------------------------------------------------------------
	// Tracing
	// -------------------------------------------------------------------------
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "inspirai",
		Endpoint:    s.Tracing.Endpoint,
		SampleRate:  s.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Busy guard
	// -------------------------------------------------------------------------
	guard := newGuard(ctx, s)
	if c, ok := guard.(interface{ Close() error }); ok {
		defer c.Close()
	}

	srv := server.New(server.Config{
		Generator:      newGeneratorService(s),
		Guard:          guard,
		RequestTimeout: s.Server.RequestTimeout,
		AllowedOrigins: s.CORS.AllowedOrigins,
		ServiceName:    "inspirai",
	})

	// -------------------------------------------------------------------------
	// Listeners
	// -------------------------------------------------------------------------
	grpcLis, err := net.Listen("tcp", s.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", s.GRPC.Addr, err)
	}
	grpcServer := srv.NewGRPCServer()

	httpServer := &http.Server{
		Addr:              s.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("grpc server listening", "addr", grpcLis.Addr().String())
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		slog.Info("http server listening", "addr", s.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// -------------------------------------------------------------------------
	// Graceful shutdown
	// -------------------------------------------------------------------------
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		if err := httpServer.Shutdown(sctx); err != nil {
			slog.Warn("http server shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("inspirai shut down")
	return nil
}

// newGuard returns a Redis-backed guard when Redis is configured and
// reachable, otherwise an in-process one.
func newGuard(ctx context.Context, s *config.Settings) busy.Guard {
	if s.Redis.Addr == "" {
		return busy.NewMemoryGuard()
	}

	rg := busy.NewRedisGuard(s.Redis.Addr, s.Redis.Password, s.Redis.DB, s.Busy.TTL)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rg.Ping(pctx); err != nil {
		slog.Warn("redis unavailable, using in-process busy guard", "addr", s.Redis.Addr, "error", err)
		_ = rg.Close()
		return busy.NewMemoryGuard()
	}
	slog.Info("busy guard backed by redis", "addr", s.Redis.Addr, "ttl", s.Busy.TTL)
	return rg
}
