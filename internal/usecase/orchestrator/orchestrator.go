// Package orchestrator is the integration layer between the routing core
// and the black-box expert analyzers. It routes a query, fans out to the
// selected analyzers concurrently, and aggregates results with per-expert
// failure isolation: one broken expert never blocks the others.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"ghst-moe/internal/adapter/analyzer"
	"ghst-moe/internal/domain"
	"ghst-moe/internal/infra/tracer"
	"ghst-moe/internal/usecase"
)

// Default invocation deadlines.
const (
	defaultExpertTimeout  = 10 * time.Second
	defaultOverallTimeout = 30 * time.Second
)

// Options configure the orchestrator.
type Options struct {
	ExpertTimeout  time.Duration // per-expert analysis deadline
	OverallTimeout time.Duration // deadline for the whole consultation
	InvokeRate     float64       // analyzer invocations per second, 0 = unlimited
	InvokeBurst    int           // rate limiter burst, defaults to 1 when rate is set
}

// Failure records one expert that could not deliver an analysis.
type Failure struct {
	ExpertID string `json:"expert_id"`
	Error    string `json:"error"`
}

// Consultation is the aggregated outcome of one expert query.
type Consultation struct {
	Query      string                  `json:"query"`
	Experts    []domain.Selection      `json:"experts"`
	Analyses   []domain.AnalysisReport `json:"analyses"`
	Failures   []Failure               `json:"failures,omitempty"`
	Warning    string                  `json:"warning,omitempty"`
	RouterStat domain.RouterStatistics `json:"router_stats"`
}

// Orchestrator ties the router to the analyzer registry.
type Orchestrator struct {
	router    *usecase.Router
	analyzers *analyzer.Registry
	registry  *usecase.Registry
	limiter   *rate.Limiter
	opts      Options
	logger    *slog.Logger
}

// New creates an orchestrator. Zero-valued timeouts fall back to defaults.
func New(router *usecase.Router, analyzers *analyzer.Registry, registry *usecase.Registry, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ExpertTimeout <= 0 {
		opts.ExpertTimeout = defaultExpertTimeout
	}
	if opts.OverallTimeout <= 0 {
		opts.OverallTimeout = defaultOverallTimeout
	}

	var limiter *rate.Limiter
	if opts.InvokeRate > 0 {
		burst := opts.InvokeBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.InvokeRate), burst)
	}

	return &Orchestrator{
		router:    router,
		analyzers: analyzers,
		registry:  registry,
		limiter:   limiter,
		opts:      opts,
		logger:    logger,
	}
}

// QueryExperts routes query and invokes every selected expert's analyzer
// concurrently. Analyses preserve router order. A query matching nothing
// is a normal empty consultation with a warning, not an error; the only
// error returned is caller cancellation before routing completes.
func (o *Orchestrator) QueryExperts(ctx context.Context, query string, qctx *domain.QueryContext, routeOpts usecase.RouteOptions) (*Consultation, error) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.query_experts",
		trace.WithAttributes(tracer.IntAttr("query.length", len(query))),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("Orchestrator.QueryExperts", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.OverallTimeout)
	defer cancel()

	selections := o.router.Route(ctx, query, qctx, routeOpts)
	span.SetAttributes(tracer.IntAttr("route.selected", len(selections)))

	out := &Consultation{
		Query:   query,
		Experts: selections,
	}
	if len(selections) == 0 {
		out.Warning = "no relevant experts found for this query"
		out.RouterStat = o.router.Statistics()
		tracer.SetOK(span)
		return out, nil
	}

	reports, failures := o.fanOut(ctx, query, qctx, selections)
	out.Analyses = reports
	out.Failures = failures
	out.RouterStat = o.router.Statistics()

	span.SetAttributes(
		tracer.IntAttr("analyses.ok", len(reports)),
		tracer.IntAttr("analyses.failed", len(failures)),
	)
	tracer.SetOK(span)
	return out, nil
}

// fanOut invokes analyzers concurrently, one goroutine per selection.
// Result slots are indexed so aggregation preserves router order
// regardless of completion order.
func (o *Orchestrator) fanOut(ctx context.Context, query string, qctx *domain.QueryContext, selections []domain.Selection) ([]domain.AnalysisReport, []Failure) {
	type slot struct {
		report domain.AnalysisReport
		err    error
	}
	slots := make([]slot, len(selections))

	var wg sync.WaitGroup
	for i, sel := range selections {
		wg.Add(1)
		go func(i int, sel domain.Selection) {
			defer wg.Done()
			slots[i].report, slots[i].err = o.invoke(ctx, query, qctx, sel)
		}(i, sel)
	}
	wg.Wait()

	reports := make([]domain.AnalysisReport, 0, len(selections))
	var failures []Failure
	for i, sel := range selections {
		if slots[i].err != nil {
			o.logger.Warn("expert analysis failed",
				"expert_id", sel.ExpertID,
				"code", string(domain.ErrorCodeOf(slots[i].err)),
				"error", slots[i].err)
			failures = append(failures, Failure{
				ExpertID: sel.ExpertID,
				Error:    slots[i].err.Error(),
			})
			continue
		}
		reports = append(reports, slots[i].report)
	}
	return reports, failures
}

// invoke runs one analyzer under the per-expert timeout and rate limit,
// converting panics and deadline hits into per-expert errors.
func (o *Orchestrator) invoke(ctx context.Context, query string, qctx *domain.QueryContext, sel domain.Selection) (report domain.AnalysisReport, err error) {
	a, ok := o.analyzers.Get(sel.ExpertID)
	if !ok {
		return domain.AnalysisReport{}, fmt.Errorf("expert %q: %w", sel.ExpertID, domain.ErrAnalyzerMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.ExpertTimeout)
	defer cancel()

	if o.limiter != nil {
		if waitErr := o.limiter.Wait(ctx); waitErr != nil {
			// Wait also fails when the context expires before a token
			// arrives; report that as a timeout, not rate limiting.
			if ctx.Err() != nil {
				return domain.AnalysisReport{}, fmt.Errorf("expert %q: %w", sel.ExpertID, domain.ErrTimeout)
			}
			return domain.AnalysisReport{}, fmt.Errorf("expert %q: %w", sel.ExpertID, domain.ErrRateLimited)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("expert %q panicked: %v: %w", sel.ExpertID, r, domain.ErrAnalyzerFailure)
		}
	}()

	report, err = a.Analyze(ctx, query, qctx)
	if err != nil {
		if ctx.Err() != nil {
			return domain.AnalysisReport{}, fmt.Errorf("expert %q: %w", sel.ExpertID, domain.ErrTimeout)
		}
		return domain.AnalysisReport{}, fmt.Errorf("expert %q: %w: %v", sel.ExpertID, domain.ErrAnalyzerFailure, err)
	}

	// Carry identity and score even when the backend leaves them blank.
	if report.ExpertID == "" {
		report.ExpertID = sel.ExpertID
	}
	if report.Name == "" {
		report.Name = sel.Name
	}
	report.Score = sel.Score
	return report, nil
}

// Suggest routes a task description with derived domain hints and returns
// the selections only, without invoking analyzers.
func (o *Orchestrator) Suggest(ctx context.Context, taskDescription string, routeOpts usecase.RouteOptions) []domain.Selection {
	return o.router.SuggestForQuery(ctx, taskDescription, routeOpts)
}

// DomainExperts lists the experts of d as full-score selections.
func (o *Orchestrator) DomainExperts(d domain.ExpertDomain) []domain.Selection {
	return o.router.ByDomain(d)
}

// DomainSummary describes one domain of the known enumeration.
type DomainSummary struct {
	Domain      domain.ExpertDomain `json:"domain"`
	DisplayName string              `json:"display_name"`
	ExpertCount int                 `json:"expert_count"`
	ExpertIDs   []string            `json:"experts"`
}

// ListDomains summarizes every known domain and its registered experts.
func (o *Orchestrator) ListDomains() []DomainSummary {
	out := make([]DomainSummary, 0, len(domain.KnownDomains()))
	for _, d := range domain.KnownDomains() {
		experts := o.registry.ListByDomain(d)
		ids := make([]string, 0, len(experts))
		for _, e := range experts {
			ids = append(ids, e.ExpertID)
		}
		out = append(out, DomainSummary{
			Domain:      d,
			DisplayName: d.DisplayName(),
			ExpertCount: len(experts),
			ExpertIDs:   ids,
		})
	}
	return out
}

// SystemStatistics aggregates registry totals with router statistics.
type SystemStatistics struct {
	TotalExperts    int                         `json:"total_experts"`
	EnabledExperts  int                         `json:"enabled_experts"`
	Domains         int                         `json:"domains"`
	Router          domain.RouterStatistics     `json:"router_stats"`
	DomainBreakdown map[domain.ExpertDomain]int `json:"domain_breakdown"`
}

// Statistics returns a system-level snapshot.
func (o *Orchestrator) Statistics() SystemStatistics {
	breakdown := make(map[domain.ExpertDomain]int, len(domain.KnownDomains()))
	for _, d := range domain.KnownDomains() {
		breakdown[d] = len(o.registry.ListByDomain(d))
	}
	return SystemStatistics{
		TotalExperts:    o.registry.Len(),
		EnabledExperts:  o.registry.CountEnabled(),
		Domains:         len(domain.KnownDomains()),
		Router:          o.router.Statistics(),
		DomainBreakdown: breakdown,
	}
}
