package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
	"github.com/kirillkom/vector-insight/internal/infrastructure/resilience"
)

const (
	operationGenerate = "analysis.generate"

	// maxAttempts is the first call plus exactly one retry, whatever the shared
	// retry setting says.
	maxAttempts = 2

	DefaultTimeout   = 30 * time.Second
	DefaultCacheSize = 256
)

// Config is resolved once at startup. An empty APIKey switches the client into
// degraded mode.
type Config struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

// Observer receives one call per Analyze. status is one of succeeded, failed,
// unavailable or cache_hit.
type Observer interface {
	ObserveAnalysis(model, status string, attempts int, duration time.Duration)
}

type Option func(*Client)

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

type Client struct {
	generator ports.TextGenerator
	executor  *resilience.Executor
	model     string
	timeout   time.Duration
	cache     *Cache
	observer  Observer
	degraded  bool
}

func New(cfg Config, generator ports.TextGenerator, executor *resilience.Executor, opts ...Option) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	executor = executor.WithMaxAttempts(maxAttempts)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" && generator != nil {
		model = generator.Model()
	}

	c := &Client{
		generator: generator,
		executor:  executor,
		model:     model,
		timeout:   timeout,
		degraded:  strings.TrimSpace(cfg.APIKey) == "" || generator == nil,
	}
	if cfg.CacheTTL > 0 {
		c.cache = NewCache(cfg.CacheSize, cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.degraded {
		slog.Warn("analysis_degraded", "reason", "missing credential")
	}
	return c
}

func (c *Client) Degraded() bool {
	return c.degraded
}

func (c *Client) Model() string {
	return c.model
}

// Analyze never returns an error: every failure is folded into a Failure outcome
// carrying a fixed reason.
func (c *Client) Analyze(ctx context.Context, prompt string, timeout time.Duration) domain.AnalysisOutcome {
	started := time.Now()
	if c.degraded {
		c.observe("unavailable", 0, started)
		return domain.AnalysisFailed(domain.ReasonAnalysisUnavailable)
	}
	if strings.TrimSpace(prompt) == "" {
		c.observe("failed", 0, started)
		return domain.AnalysisFailed(domain.ReasonRequestRejected)
	}
	if timeout <= 0 {
		timeout = c.timeout
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(c.model, prompt); ok {
			c.observe("cache_hit", 0, started)
			return cached
		}
	}

	tracker := newStateTracker(c.model)
	attempts := 0
	var text string
	err := c.executor.Execute(ctx, operationGenerate, func(ctx context.Context, attempt int) error {
		attempts = attempt
		if attempt == 1 {
			tracker.transition(domain.StateRequesting)
		} else {
			tracker.transition(domain.StateRetrying)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		out, err := c.generator.Generate(attemptCtx, prompt)
		if err != nil {
			if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
				return domain.WrapError(domain.ErrAttemptTimeout, operationGenerate, err)
			}
			return err
		}
		text = out
		return nil
	}, classifyAnalysisError)

	if err != nil {
		reason := failureReason(ctx, err)
		tracker.fail(reason, err)
		c.observe("failed", attempts, started)
		return domain.AnalysisFailed(reason)
	}

	tracker.transition(domain.StateSucceeded)
	outcome := domain.AnalysisSucceeded(text, c.model)
	if c.cache != nil {
		c.cache.Add(c.model, prompt, outcome)
	}
	c.observe("succeeded", attempts, started)
	return outcome
}

func (c *Client) observe(status string, attempts int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveAnalysis(c.model, status, attempts, time.Since(started))
}

func classifyAnalysisError(err error) resilience.ErrorClassification {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded) && !domain.IsKind(err, domain.ErrAttemptTimeout):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrAttemptTimeout), domain.IsKind(err, domain.ErrTemporary):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case domain.IsKind(err, domain.ErrInvalidInput):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

func failureReason(ctx context.Context, err error) string {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return domain.ReasonTimeout
		}
		return domain.ReasonCancelled
	}
	switch {
	case resilience.IsCircuitOpen(err):
		return domain.ReasonCircuitOpen
	case domain.IsKind(err, domain.ErrAttemptTimeout):
		return domain.ReasonTimeout
	case domain.IsKind(err, domain.ErrRateLimited):
		return domain.ReasonRateLimited
	case domain.IsKind(err, domain.ErrQuotaExhausted):
		return domain.ReasonQuotaExhausted
	case domain.IsKind(err, domain.ErrUnauthorized):
		return domain.ReasonCredentialRejected
	case domain.IsKind(err, domain.ErrInvalidInput):
		return domain.ReasonRequestRejected
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ReasonTimeout
	default:
		return domain.ReasonServiceError
	}
}
