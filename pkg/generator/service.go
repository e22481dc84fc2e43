package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abdhe/inspirai/pkg/config"
	"github.com/abdhe/inspirai/pkg/logger"
	"github.com/abdhe/inspirai/pkg/metrics"
	"github.com/abdhe/inspirai/pkg/provider"
	"github.com/abdhe/inspirai/pkg/tracer"
)

// CredentialResolver yields the provider credential for one call.
type CredentialResolver interface {
	Resolve() (string, error)
}

// Config holds the service dependencies.
type Config struct {
	Resolver  CredentialResolver
	Transport provider.Transport
	BaseURL   string
	Model     string
}

// Service issues generation requests. It keeps no state between calls and is
// safe for concurrent use.
type Service struct {
	resolver  CredentialResolver
	transport provider.Transport
	baseURL   string
	model     string
}

// NewService creates a Service. Missing dependencies fall back to the process
// credential sources and a plain HTTP transport.
func NewService(cfg Config) *Service {
	if cfg.Resolver == nil {
		cfg.Resolver = config.NewResolver()
	}
	if cfg.Transport == nil {
		cfg.Transport = provider.NewHTTPTransport(nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = provider.DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = provider.DefaultModel
	}
	return &Service{
		resolver:  cfg.Resolver,
		transport: cfg.Transport,
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
	}
}

// Result is a successful generation with the provider's accounting.
type Result struct {
	Text         string
	FinishReason string
	PromptTokens int32
	OutputTokens int32
}

// Generate produces text for p. It fails with *config.ConfigurationError,
// *ProviderError or *EmptyResultError. The word count is only a hint to the
// provider and is not checked against the result.
func (s *Service) Generate(ctx context.Context, p Params) (string, error) {
	res, err := s.GenerateResult(ctx, p)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// GenerateResult is Generate with token usage and finish reason.
func (s *Service) GenerateResult(ctx context.Context, p Params) (Result, error) {
	start := time.Now()
	metrics.ActiveGenerations.Inc()
	defer metrics.ActiveGenerations.Dec()

	ctx, span := tracer.Start(ctx, "generator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("generation.format", string(p.Format)),
		attribute.String("generation.tone", p.Tone),
		attribute.String("generation.style", p.Style),
		attribute.Int("generation.word_count", p.WordCount),
		attribute.String("generation.model", s.model),
	)

	res, err := s.generate(ctx, p)

	outcome := Outcome(err)
	elapsed := time.Since(start)
	metrics.ObserveGeneration(formatLabel(p.Format), outcome, elapsed)

	log := logger.FromContext(ctx).With("component", "generator", "format", p.Format, "outcome", outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		log.Debug("generation failed", "elapsed", elapsed, "error", err)
		return Result{}, err
	}

	metrics.ObserveTokens(s.model, res.PromptTokens, res.OutputTokens)
	span.SetAttributes(attribute.String("generation.finish_reason", res.FinishReason))
	log.Debug("generation finished", "elapsed", elapsed, "finish_reason", res.FinishReason,
		"prompt_tokens", res.PromptTokens, "output_tokens", res.OutputTokens)
	return res, nil
}

func (s *Service) generate(ctx context.Context, p Params) (Result, error) {
	key, err := s.resolver.Resolve()
	if err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(provider.NewTextRequest(RenderPrompt(p)))
	if err != nil {
		return Result{}, &ProviderError{Err: fmt.Errorf("gemini: marshal request: %w", err)}
	}

	resp, err := s.transport.Send(ctx, provider.Request{
		Method: http.MethodPost,
		URL:    provider.GenerateContentURL(s.baseURL, s.model, key),
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	})
	if err != nil {
		metrics.ProviderResponsesTotal.WithLabelValues("0").Inc()
		return Result{}, &ProviderError{Err: err}
	}
	metrics.ProviderResponsesTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if !resp.OK() {
		return Result{}, &ProviderError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	decoded, err := provider.DecodeResponse(resp.Body)
	if err != nil {
		return Result{}, &ProviderError{StatusCode: resp.StatusCode, Body: string(resp.Body), Err: err}
	}

	if len(decoded.Candidates) == 0 {
		empty := &EmptyResultError{}
		if decoded.PromptFeedback != nil {
			empty.BlockReason = decoded.PromptFeedback.BlockReason
		}
		return Result{}, empty
	}

	first := decoded.Candidates[0]
	if len(first.Content.Parts) == 0 || first.Content.Parts[0].Text == "" {
		return Result{}, &EmptyResultError{}
	}

	return Result{
		Text:         first.Content.Parts[0].Text,
		FinishReason: first.FinishReason,
		PromptTokens: decoded.UsageMetadata.PromptTokenCount,
		OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
	}, nil
}

// Outcome classifies err into one of the metrics outcome labels.
func Outcome(err error) string {
	var (
		cfgErr   *config.ConfigurationError
		emptyErr *EmptyResultError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &cfgErr):
		return metrics.OutcomeConfiguration
	case errors.As(err, &emptyErr):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeProvider
	}
}

func formatLabel(f Format) string {
	if f.Valid() {
		return string(f)
	}
	return "unknown"
}
