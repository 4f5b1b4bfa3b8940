package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"ghst-moe/internal/domain"
	"ghst-moe/internal/infra/tracer"
)

// Default routing parameters.
const (
	DefaultTopK      = 3
	DefaultThreshold = 0.1

	// History is bounded: once it exceeds historyMax it is trimmed to
	// historyKeep, oldest entries first.
	historyMax  = 100
	historyKeep = 50

	mostUsedLimit = 5
)

// RouteOptions tune a single routing call. The zero value selects the
// defaults (TopK 3, Threshold 0.1); TopKSet/ThresholdSet distinguish an
// explicit zero from an unset field.
type RouteOptions struct {
	TopK         int
	TopKSet      bool
	Threshold    float64
	ThresholdSet bool
}

func (o RouteOptions) topK() int {
	if !o.TopKSet {
		return DefaultTopK
	}
	return o.TopK
}

func (o RouteOptions) threshold() float64 {
	if !o.ThresholdSet {
		return DefaultThreshold
	}
	return o.Threshold
}

// WithTopK returns o with an explicit top-k bound.
func (o RouteOptions) WithTopK(k int) RouteOptions {
	o.TopK, o.TopKSet = k, true
	return o
}

// WithThreshold returns o with an explicit score threshold.
func (o RouteOptions) WithThreshold(t float64) RouteOptions {
	o.Threshold, o.ThresholdSet = t, true
	return o
}

// QueryRecord is one bounded-history entry describing a routing call.
type QueryRecord struct {
	ID        string             `json:"id"`
	Query     string             `json:"query"`
	Selected  []string           `json:"selected_experts"`
	Scores    map[string]float64 `json:"scores"`
	Timestamp time.Time          `json:"timestamp"`
}

// Router selects and ranks experts for free-text queries.
//
// Routing is deterministic: for a fixed registry state, query, context and
// options, two calls return identical ordered results. Ties keep
// registration order (stable sort).
type Router struct {
	registry *Registry
	scorer   *Scorer
	logger   *slog.Logger

	mu           sync.Mutex
	totalQueries int
	usage        map[string]int
	history      []QueryRecord
	entropy      *ulid.MonotonicEntropy
}

// NewRouter creates a router over registry using scorer.
func NewRouter(registry *Registry, scorer *Scorer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		scorer:   scorer,
		logger:   logger,
		usage:    make(map[string]int),
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Route scores every enabled expert against query, drops scores below the
// threshold, sorts descending (stable), truncates to top-k and records
// usage statistics. TotalQueries increments once per call even when the
// result is empty.
func (r *Router) Route(ctx context.Context, query string, qctx *domain.QueryContext, opts RouteOptions) []domain.Selection {
	_, span := tracer.StartSpan(ctx, "router.route",
		trace.WithAttributes(
			tracer.IntAttr("query.length", len(query)),
			tracer.IntAttr("route.top_k", opts.topK()),
		),
	)
	defer span.End()

	candidates := r.registry.ListEnabled()
	span.SetAttributes(tracer.IntAttr("route.candidates", len(candidates)))

	topK := opts.topK()
	threshold := opts.threshold()

	selections := make([]domain.Selection, 0, len(candidates))
	if topK > 0 {
		for _, expert := range candidates {
			score, reasoning := r.scorer.Score(query, expert, qctx)
			if score < threshold {
				continue
			}
			selections = append(selections, domain.Selection{
				ExpertID:  expert.ExpertID,
				Name:      expert.Name,
				Score:     score,
				Reasoning: reasoning,
			})
		}

		sort.SliceStable(selections, func(i, j int) bool {
			return selections[i].Score > selections[j].Score
		})
		if len(selections) > topK {
			selections = selections[:topK]
		}
	}

	r.record(query, selections)
	span.SetAttributes(tracer.IntAttr("route.selected", len(selections)))
	tracer.SetOK(span)

	r.logger.Debug("query routed",
		"candidates", len(candidates), "selected", len(selections), "top_k", topK, "threshold", threshold)
	return selections
}

// record updates counters and the bounded history under the stats lock.
func (r *Router) record(query string, selections []domain.Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalQueries++

	ids := make([]string, 0, len(selections))
	scores := make(map[string]float64, len(selections))
	for _, sel := range selections {
		r.usage[sel.ExpertID]++
		ids = append(ids, sel.ExpertID)
		scores[sel.ExpertID] = sel.Score
	}

	now := time.Now().UTC()
	r.history = append(r.history, QueryRecord{
		ID:        ulid.MustNew(ulid.Timestamp(now), r.entropy).String(),
		Query:     query,
		Selected:  ids,
		Scores:    scores,
		Timestamp: now,
	})
	if len(r.history) > historyMax {
		r.history = append([]QueryRecord(nil), r.history[len(r.history)-historyKeep:]...)
	}
}

// ByDomain returns every expert in d as a full-score selection.
func (r *Router) ByDomain(d domain.ExpertDomain) []domain.Selection {
	experts := r.registry.ListByDomain(d)
	out := make([]domain.Selection, 0, len(experts))
	for _, e := range experts {
		out = append(out, domain.Selection{
			ExpertID:  e.ExpertID,
			Name:      e.Name,
			Score:     1.0,
			Reasoning: "Domain expert: " + string(d),
		})
	}
	return out
}

// ByID returns a direct selection for expertID, or false when the expert
// is unknown or disabled.
func (r *Router) ByID(expertID string) (domain.Selection, bool) {
	meta, ok := r.registry.Get(expertID)
	if !ok || !meta.Enabled {
		return domain.Selection{}, false
	}
	return domain.Selection{
		ExpertID:  meta.ExpertID,
		Name:      meta.Name,
		Score:     1.0,
		Reasoning: "Direct selection",
	}, true
}

// domainHints maps domains to trigger words used by SuggestForQuery to
// derive a primary-domain hint from free text.
var domainHints = []struct {
	domain domain.ExpertDomain
	words  []string
}{
	{domain.DomainMusicTheory, []string{"music", "audio", "sound", "melody", "harmony"}},
	{domain.Domain3DPrinting, []string{"3d print", "mesh", "stl", "gcode"}},
	{domain.DomainUIUXDesign, []string{"ui", "ux", "design", "interface", "user experience"}},
	{domain.DomainEngineering, []string{"engineering", "physics", "mechanical", "materials"}},
	{domain.DomainMathematics, []string{"math", "algorithm", "calculation", "optimization"}},
	{domain.DomainSecurity, []string{"security", "vulnerability", "safe", "protection"}},
	{domain.DomainPerformance, []string{"performance", "speed", "optimize", "efficient"}},
}

// SuggestForQuery analyzes free text for domain hints and routes with the
// derived context. The first matching domain in hint order wins.
func (r *Router) SuggestForQuery(ctx context.Context, text string, opts RouteOptions) []domain.Selection {
	lower := strings.ToLower(text)
	var qctx *domain.QueryContext
	for _, h := range domainHints {
		for _, w := range h.words {
			if strings.Contains(lower, w) {
				qctx = &domain.QueryContext{PrimaryDomain: h.domain}
				break
			}
		}
		if qctx != nil {
			break
		}
	}
	return r.Route(ctx, text, qctx, opts)
}

// Statistics returns a read-only snapshot of the usage counters. It never
// resets anything.
func (r *Router) Statistics() domain.RouterStatistics {
	r.mu.Lock()
	totalQueries := r.totalQueries
	usage := make(map[string]int, len(r.usage))
	for id, n := range r.usage {
		usage[id] += n
	}
	selectedTotal := 0
	for _, rec := range r.history {
		selectedTotal += len(rec.Selected)
	}
	historyLen := len(r.history)
	r.mu.Unlock()

	mostUsed := make([]domain.ExpertUsage, 0, len(usage))
	for id, n := range usage {
		mostUsed = append(mostUsed, domain.ExpertUsage{ExpertID: id, Count: n})
	}
	sort.Slice(mostUsed, func(i, j int) bool {
		if mostUsed[i].Count != mostUsed[j].Count {
			return mostUsed[i].Count > mostUsed[j].Count
		}
		return mostUsed[i].ExpertID < mostUsed[j].ExpertID
	})
	if len(mostUsed) > mostUsedLimit {
		mostUsed = mostUsed[:mostUsedLimit]
	}

	avg := 0.0
	if historyLen > 0 {
		avg = float64(selectedTotal) / float64(historyLen)
	}

	return domain.RouterStatistics{
		TotalQueries:      totalQueries,
		PerExpertUsage:    usage,
		MostUsed:          mostUsed,
		AvgExpertsPerQry:  avg,
		RegisteredExperts: r.registry.Len(),
		EnabledExperts:    r.registry.CountEnabled(),
	}
}

// History returns a copy of the bounded query history, oldest first.
func (r *Router) History() []QueryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]QueryRecord, len(r.history))
	copy(out, r.history)
	return out
}
