package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"ghst-moe/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerSettings configures CircuitBreakerAnalyzer. Zero values fall
// back to the defaults above.
type BreakerSettings struct {
	MaxFailures uint32        // consecutive failures before the circuit opens
	Timeout     time.Duration // open-state duration before half-open
	Interval    time.Duration // closed-state period for clearing failure counts
}

// CircuitBreakerAnalyzer wraps an ExpertAnalyzer with circuit breaker
// protection. When the wrapped analyzer fails repeatedly the circuit opens
// and subsequent calls fail fast without reaching the backend, preventing
// retry storms against a broken expert.
type CircuitBreakerAnalyzer struct {
	expertID string
	inner    domain.ExpertAnalyzer
	breaker  *gobreaker.CircuitBreaker[domain.AnalysisReport]
	logger   *slog.Logger
}

// NewCircuitBreakerAnalyzer wraps inner with a circuit breaker named after
// the expert.
func NewCircuitBreakerAnalyzer(expertID string, inner domain.ExpertAnalyzer, cfg BreakerSettings, logger *slog.Logger) *CircuitBreakerAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[domain.AnalysisReport](gobreaker.Settings{
		Name:        "expert:" + expertID,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("expert circuit state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &CircuitBreakerAnalyzer{
		expertID: expertID,
		inner:    inner,
		breaker:  cb,
		logger:   logger,
	}
}

// Analyze implements domain.ExpertAnalyzer. Calls are routed through the
// circuit breaker; an open circuit surfaces as ErrCircuitOpen.
func (a *CircuitBreakerAnalyzer) Analyze(ctx context.Context, query string, qctx *domain.QueryContext) (domain.AnalysisReport, error) {
	report, err := a.breaker.Execute(func() (domain.AnalysisReport, error) {
		return a.inner.Analyze(ctx, query, qctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return domain.AnalysisReport{}, fmt.Errorf("expert %q: %w", a.expertID, domain.ErrCircuitOpen)
		}
		return domain.AnalysisReport{}, err
	}
	return report, nil
}

// State returns the current circuit state for monitoring.
func (a *CircuitBreakerAnalyzer) State() gobreaker.State {
	return a.breaker.State()
}

// Counts returns the current failure/success counts.
func (a *CircuitBreakerAnalyzer) Counts() gobreaker.Counts {
	return a.breaker.Counts()
}

var _ domain.ExpertAnalyzer = (*CircuitBreakerAnalyzer)(nil)
