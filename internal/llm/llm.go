// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides a provider-neutral language-model client used by
// the analysis, limitation, and gap stages. A provider implements Client;
// New wraps the configured provider with a rate limiter and a retry
// decorator so stages never deal with transport flakiness themselves.
//
// Implements: prd010-llm (R1-R4);
//
//	docs/ARCHITECTURE § LLM Client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/litreview/pkg/types"
)

// Supported providers (LLMConfig.Provider values).
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
)

// Defaults applied when LLMConfig leaves the knobs unset.
const (
	DefaultMaxTokens         = 2048
	DefaultTemperature       = 0.3
	DefaultTimeout           = 120 * time.Second
	DefaultMaxRetries        = 2
	DefaultRequestsPerSecond = 1.0
	DefaultBurst             = 1
)

// ErrUnavailable marks an endpoint that could not be reached at all:
// transport failures, 5xx, or rate limiting that survived every retry,
// and authentication rejections. The workflow controller treats errors
// wrapping it as fatal; anything else is a per-item failure.
var ErrUnavailable = errors.New("llm service unavailable")

// Fatal reports whether err means no further model calls can succeed:
// the endpoint is unavailable or the context has ended. Stages use it to
// decide between dropping one item and aborting the whole run.
func Fatal(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Request is one completion request.
type Request struct {
	// System is the system prompt. Empty omits it.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens caps the response length. Zero uses DefaultMaxTokens.
	MaxTokens int

	// Temperature controls sampling.
	Temperature float64
}

// Usage reports token consumption for one call, when the provider
// returns it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the model's reply.
type Response struct {
	// Text is the concatenated text content of the reply.
	Text string

	// Model identifies the model that produced the reply.
	Model string

	// Usage holds token counts. Zero when the provider omits them.
	Usage Usage
}

// Client abstracts a language-model provider so stages and tests can
// supply their own implementations.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// New builds the provider selected by cfg.Provider, wrapped with the
// rate-limit and retry decorators. An empty provider selects anthropic.
func New(cfg types.LLMConfig, log *zap.Logger) (Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var base Client
	var err error
	switch cfg.Provider {
	case "", ProviderAnthropic:
		base, err = NewAnthropic(cfg)
	case ProviderGemini:
		base, err = NewGemini(cfg)
	case ProviderOpenAI:
		base, err = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Wrap(base, cfg, log), nil
}

// Wrap layers the rate limiter and retry decorators over a provider.
// Exported so tests wrap mock providers the same way production code
// wraps real ones.
func Wrap(base Client, cfg types.LLMConfig, log *zap.Logger) Client {
	if log == nil {
		log = zap.NewNop()
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	withDefaults := &defaultsClient{
		inner:       base,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
	limited := &rateLimitedClient{
		inner:   withDefaults,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
	return &retryClient{inner: limited, maxRetries: maxRetries, log: log}
}

// httpTimeout resolves the per-request timeout for hand-rolled providers.
func httpTimeout(cfg types.LLMConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultTimeout
}

// apiError carries the HTTP status of a failed provider call so the
// retry decorator can classify it.
type apiError struct {
	provider string
	status   int
	body     string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.provider, e.status, e.body)
}

// retryable reports whether a failure is worth another attempt: 429,
// 5xx, and anything without a known HTTP status (network failures,
// timeouts, SDK-internal errors). Client errors fail fast.
func retryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status == http.StatusTooManyRequests || ae.status >= 500
	}
	return true
}

// fatal reports whether a non-retryable failure still makes the whole
// endpoint unusable. A rejected key will reject every later call too.
func fatal(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status == http.StatusUnauthorized || ae.status == http.StatusForbidden
	}
	return false
}

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// retryClient retries transient failures with exponential backoff.
type retryClient struct {
	inner      Client
	maxRetries int
	log        *zap.Logger
}

func (c *retryClient) Name() string { return c.inner.Name() }

func (c *retryClient) Complete(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Response{}, err
		}
		if !retryable(err) {
			if fatal(err) {
				return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return Response{}, err
		}
		lastErr = err
		c.log.Warn("llm call failed",
			zap.String("provider", c.inner.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return Response{}, fmt.Errorf("%w: after %d retries: %v", ErrUnavailable, c.maxRetries, lastErr)
}

// defaultsClient fills request fields the caller left unset from the
// configured defaults, so stages only carry prompts.
type defaultsClient struct {
	inner       Client
	maxTokens   int
	temperature float64
}

func (c *defaultsClient) Name() string { return c.inner.Name() }

func (c *defaultsClient) Complete(ctx context.Context, req Request) (Response, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.maxTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = c.temperature
	}
	return c.inner.Complete(ctx, req)
}

// rateLimitedClient makes callers wait for a token before each call so
// provider rate limits are respected across concurrent stages.
type rateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

func (c *rateLimitedClient) Name() string { return c.inner.Name() }

func (c *rateLimitedClient) Complete(ctx context.Context, req Request) (Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}
	return c.inner.Complete(ctx, req)
}
