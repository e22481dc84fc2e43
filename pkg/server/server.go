// Package server exposes the generator over HTTP and gRPC.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/abdhe/inspirai/pkg/busy"
	"github.com/abdhe/inspirai/pkg/config"
	"github.com/abdhe/inspirai/pkg/generator"
	"github.com/abdhe/inspirai/pkg/logger"
)

// Generator is the part of generator.Service the servers need.
type Generator interface {
	Generate(ctx context.Context, p generator.Params) (string, error)
}

// Config holds the server dependencies.
type Config struct {
	Generator Generator
	// Guard refuses overlapping generations per client. Nil means an
	// in-process guard.
	Guard busy.Guard
	// RequestTimeout bounds each generation; zero means no bound.
	RequestTimeout time.Duration
	AllowedOrigins []string
	ServiceName    string
}

// Server is shared by the HTTP and gRPC front ends.
type Server struct {
	gen            Generator
	guard          busy.Guard
	requestTimeout time.Duration
	allowedOrigins []string
	serviceName    string
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Guard == nil {
		cfg.Guard = busy.NewMemoryGuard()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "inspirai"
	}
	return &Server{
		gen:            cfg.Generator,
		guard:          cfg.Guard,
		requestTimeout: cfg.RequestTimeout,
		allowedOrigins: cfg.AllowedOrigins,
		serviceName:    cfg.ServiceName,
	}
}

// generate validates p, holds the client's busy lease for the duration of the
// call and applies the configured deadline.
func (s *Server) generate(ctx context.Context, clientKey string, p generator.Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	if clientKey != "" {
		release, err := s.guard.Acquire(ctx, clientKey)
		switch {
		case errors.Is(err, busy.ErrBusy):
			return "", err
		case err != nil:
			// Guard backend down: serve the request unguarded.
			logger.FromContext(ctx).Warn("busy guard unavailable", "component", "server", "error", err)
		default:
			defer release()
		}
	}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	return s.gen.Generate(ctx, p)
}

// failure is the caller-facing classification of a generation error.
type failure struct {
	HTTPStatus     int
	GRPCCode       codes.Code
	Code           string
	Retryable      bool
	ProviderStatus int
}

func classify(err error) failure {
	var (
		cfgErr   *config.ConfigurationError
		provErr  *generator.ProviderError
		emptyErr *generator.EmptyResultError
	)
	switch {
	case errors.Is(err, generator.ErrInvalidParams):
		return failure{HTTPStatus: http.StatusBadRequest, GRPCCode: codes.InvalidArgument, Code: "invalid_params"}
	case errors.Is(err, busy.ErrBusy):
		return failure{HTTPStatus: http.StatusConflict, GRPCCode: codes.ResourceExhausted, Code: "busy", Retryable: true}
	case errors.As(err, &cfgErr):
		return failure{HTTPStatus: http.StatusServiceUnavailable, GRPCCode: codes.FailedPrecondition, Code: "configuration_error"}
	case errors.As(err, &emptyErr):
		return failure{HTTPStatus: http.StatusBadGateway, GRPCCode: codes.Aborted, Code: "empty_result", Retryable: true}
	case errors.As(err, &provErr):
		if errors.Is(err, context.DeadlineExceeded) {
			return failure{HTTPStatus: http.StatusGatewayTimeout, GRPCCode: codes.DeadlineExceeded, Code: "provider_timeout", Retryable: true}
		}
		return failure{HTTPStatus: http.StatusBadGateway, GRPCCode: codes.Unavailable, Code: "provider_error",
			Retryable: true, ProviderStatus: provErr.StatusCode}
	default:
		return failure{HTTPStatus: http.StatusInternalServerError, GRPCCode: codes.Internal, Code: "internal"}
	}
}
