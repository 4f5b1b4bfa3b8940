package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ghst-moe/internal/domain"
)

// keywordExpert builds an expert whose score comes from keywords only, so
// expectations stay simple arithmetic.
func keywordExpert(id string, d domain.ExpertDomain, keywords ...string) domain.ExpertMetadata {
	return domain.ExpertMetadata{
		ExpertID: id,
		Name:     id + " expert",
		Domain:   d,
		Keywords: keywords,
		Enabled:  true,
	}
}

func newTestRouter(t *testing.T, experts ...domain.ExpertMetadata) *Router {
	t.Helper()
	reg := NewRegistry(testLogger())
	for _, e := range experts {
		if err := reg.Register(e); err != nil {
			t.Fatalf("Register %s: %v", e.ExpertID, err)
		}
	}
	return NewRouter(reg, NewScorer(DefaultScoringWeights()), testLogger())
}

func selectionIDs(sels []domain.Selection) []string {
	ids := make([]string, len(sels))
	for i, s := range sels {
		ids[i] = s.ExpertID
	}
	return ids
}

func TestRouterRanksByScoreDescending(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("audit", domain.DomainSecurity, "vulnerability"),
		keywordExpert("sec", domain.DomainSecurity, "security", "vulnerability"),
		keywordExpert("color", domain.DomainUIUXDesign, "color"),
	)

	got := r.Route(context.Background(), "security vulnerability report", nil, RouteOptions{})
	want := []string{"sec", "audit"} // 0.4 then 0.2; color scores 0
	if len(got) != len(want) {
		t.Fatalf("selected %v, want %v", selectionIDs(got), want)
	}
	for i, id := range want {
		if got[i].ExpertID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ExpertID, id)
		}
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("not descending: %v then %v", got[0].Score, got[1].Score)
	}
	if got[0].Reasoning == "" {
		t.Error("selection missing reasoning")
	}
}

func TestRouterDeterministic(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("a", domain.DomainCore, "alpha", "shared"),
		keywordExpert("b", domain.DomainCore, "beta", "shared"),
		keywordExpert("c", domain.DomainCore, "shared"),
	)

	first := r.Route(context.Background(), "shared alpha beta", nil, RouteOptions{})
	second := r.Route(context.Background(), "shared alpha beta", nil, RouteOptions{})

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("selection %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRouterTieKeepsRegistrationOrder(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("zeta", domain.DomainCore, "topic"),
		keywordExpert("alpha", domain.DomainCore, "topic"),
		keywordExpert("mid", domain.DomainCore, "topic"),
	)

	got := r.Route(context.Background(), "tell me about topic", nil, RouteOptions{})
	want := []string{"zeta", "alpha", "mid"} // equal scores, stable order
	if fmt.Sprint(selectionIDs(got)) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", selectionIDs(got), want)
	}
}

func TestRouterTopKBound(t *testing.T) {
	experts := make([]domain.ExpertMetadata, 0, 5)
	for i := 0; i < 5; i++ {
		experts = append(experts, keywordExpert(fmt.Sprintf("e%d", i), domain.DomainCore, "topic"))
	}
	r := newTestRouter(t, experts...)

	if got := r.Route(context.Background(), "topic", nil, RouteOptions{}); len(got) != DefaultTopK {
		t.Errorf("default top-k: got %d selections, want %d", len(got), DefaultTopK)
	}
	if got := r.Route(context.Background(), "topic", nil, RouteOptions{}.WithTopK(2)); len(got) != 2 {
		t.Errorf("top-k 2: got %d selections", len(got))
	}
	if got := r.Route(context.Background(), "topic", nil, RouteOptions{}.WithTopK(10)); len(got) != 5 {
		t.Errorf("top-k 10: got %d selections, want all 5", len(got))
	}
}

func TestRouterTopKZeroStillCounts(t *testing.T) {
	r := newTestRouter(t, keywordExpert("a", domain.DomainCore, "topic"))

	got := r.Route(context.Background(), "topic", nil, RouteOptions{}.WithTopK(0))
	if len(got) != 0 {
		t.Errorf("top-k 0: got %d selections, want none", len(got))
	}
	if stats := r.Statistics(); stats.TotalQueries != 1 {
		t.Errorf("TotalQueries = %d, want 1 (empty results still count)", stats.TotalQueries)
	}
}

func TestRouterThresholdStrict(t *testing.T) {
	r := newTestRouter(t, keywordExpert("a", domain.DomainCore, "topic"))

	// One keyword match scores exactly 0.2.
	if got := r.Route(context.Background(), "topic", nil, RouteOptions{}.WithThreshold(0.2)); len(got) != 1 {
		t.Errorf("score == threshold must be kept, got %d", len(got))
	}
	if got := r.Route(context.Background(), "topic", nil, RouteOptions{}.WithThreshold(0.25)); len(got) != 0 {
		t.Errorf("score below threshold must be dropped, got %d", len(got))
	}
}

func TestRouterSkipsDisabledExperts(t *testing.T) {
	strong := keywordExpert("strong", domain.DomainCore, "topic", "subject", "matter")
	strong.Enabled = false
	r := newTestRouter(t, strong, keywordExpert("weak", domain.DomainCore, "topic"))

	got := r.Route(context.Background(), "topic subject matter", nil, RouteOptions{})
	if len(got) != 1 || got[0].ExpertID != "weak" {
		t.Errorf("selected %v, want only weak", selectionIDs(got))
	}
}

func TestRouterNoMatchReturnsEmpty(t *testing.T) {
	r := newTestRouter(t, keywordExpert("a", domain.DomainCore, "topic"))

	got := r.Route(context.Background(), "completely different subject", nil, RouteOptions{})
	if len(got) != 0 {
		t.Errorf("got %v, want empty", selectionIDs(got))
	}
}

func TestRouterByDomain(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("s1", domain.DomainSecurity, "security"),
		keywordExpert("c1", domain.DomainUIUXDesign, "color"),
		keywordExpert("s2", domain.DomainSecurity, "safety"),
	)

	got := r.ByDomain(domain.DomainSecurity)
	if fmt.Sprint(selectionIDs(got)) != fmt.Sprint([]string{"s1", "s2"}) {
		t.Fatalf("ByDomain = %v", selectionIDs(got))
	}
	for _, sel := range got {
		if sel.Score != 1.0 {
			t.Errorf("%s score = %v, want 1.0", sel.ExpertID, sel.Score)
		}
	}
}

func TestRouterByID(t *testing.T) {
	disabled := keywordExpert("off", domain.DomainCore, "x")
	disabled.Enabled = false
	r := newTestRouter(t, keywordExpert("on", domain.DomainCore, "x"), disabled)

	sel, ok := r.ByID("on")
	if !ok || sel.Score != 1.0 {
		t.Errorf("ByID(on) = %+v, %v", sel, ok)
	}
	if _, ok := r.ByID("off"); ok {
		t.Error("ByID must refuse disabled experts")
	}
	if _, ok := r.ByID("ghost-of-nobody"); ok {
		t.Error("ByID must refuse unknown experts")
	}
}

func TestRouterSuggestForQuery(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("sec", domain.DomainSecurity, "security"),
		keywordExpert("perf", domain.DomainPerformance, "performance"),
	)

	// "security" in the text should derive a security primary-domain hint,
	// which adds domain and primary-domain contributions on top of the
	// keyword hit.
	got := r.SuggestForQuery(context.Background(), "review the security of this service", RouteOptions{})
	if len(got) == 0 || got[0].ExpertID != "sec" {
		t.Fatalf("suggest = %v, want sec first", selectionIDs(got))
	}
	if got[0].Score <= 0.2 {
		t.Errorf("score = %v, want boost above plain keyword hit", got[0].Score)
	}
}

func TestRouterStatisticsAccounting(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("a", domain.DomainCore, "alpha"),
		keywordExpert("b", domain.DomainCore, "beta"),
	)
	ctx := context.Background()

	r.Route(ctx, "alpha", nil, RouteOptions{})
	r.Route(ctx, "alpha beta", nil, RouteOptions{})
	r.Route(ctx, "nothing matches here", nil, RouteOptions{})

	stats := r.Statistics()
	if stats.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", stats.TotalQueries)
	}
	if stats.PerExpertUsage["a"] != 2 || stats.PerExpertUsage["b"] != 1 {
		t.Errorf("usage = %v, want a:2 b:1", stats.PerExpertUsage)
	}
	if len(stats.MostUsed) != 2 || stats.MostUsed[0].ExpertID != "a" {
		t.Errorf("MostUsed = %v, want a first", stats.MostUsed)
	}
	if stats.RegisteredExperts != 2 || stats.EnabledExperts != 2 {
		t.Errorf("expert counts = %d/%d, want 2/2", stats.RegisteredExperts, stats.EnabledExperts)
	}
	// 1 + 2 + 0 selections over 3 queries.
	if want := 1.0; stats.AvgExpertsPerQry != want {
		t.Errorf("AvgExpertsPerQry = %v, want %v", stats.AvgExpertsPerQry, want)
	}
}

func TestRouterMostUsedLimit(t *testing.T) {
	experts := make([]domain.ExpertMetadata, 0, 7)
	for i := 0; i < 7; i++ {
		experts = append(experts, keywordExpert(fmt.Sprintf("e%d", i), domain.DomainCore, fmt.Sprintf("kw%d", i)))
	}
	r := newTestRouter(t, experts...)

	for i := 0; i < 7; i++ {
		// e0 routed most often, e6 least.
		for j := 0; j <= 7-i; j++ {
			r.Route(context.Background(), fmt.Sprintf("kw%d", i), nil, RouteOptions{})
		}
	}

	stats := r.Statistics()
	if len(stats.MostUsed) != 5 {
		t.Fatalf("MostUsed len = %d, want 5", len(stats.MostUsed))
	}
	if stats.MostUsed[0].ExpertID != "e0" {
		t.Errorf("MostUsed[0] = %s, want e0", stats.MostUsed[0].ExpertID)
	}
	for i := 1; i < len(stats.MostUsed); i++ {
		if stats.MostUsed[i-1].Count < stats.MostUsed[i].Count {
			t.Errorf("MostUsed not sorted at %d: %v", i, stats.MostUsed)
		}
	}
}

func TestRouterHistoryBounded(t *testing.T) {
	r := newTestRouter(t, keywordExpert("a", domain.DomainCore, "topic"))
	ctx := context.Background()

	for i := 0; i < historyMax+1; i++ {
		r.Route(ctx, fmt.Sprintf("topic %d", i), nil, RouteOptions{})
	}

	hist := r.History()
	if len(hist) != historyKeep {
		t.Fatalf("history len = %d, want %d after trim", len(hist), historyKeep)
	}
	// Oldest entries go first; the newest query must be the last record.
	if want := fmt.Sprintf("topic %d", historyMax); hist[len(hist)-1].Query != want {
		t.Errorf("last record query = %q, want %q", hist[len(hist)-1].Query, want)
	}
	seen := make(map[string]bool, len(hist))
	for _, rec := range hist {
		if rec.ID == "" {
			t.Fatal("history record missing ID")
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate history ID %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestRouterHistoryRecordsScores(t *testing.T) {
	r := newTestRouter(t, keywordExpert("a", domain.DomainCore, "topic"))

	r.Route(context.Background(), "topic", nil, RouteOptions{})
	hist := r.History()
	if len(hist) != 1 {
		t.Fatalf("history len = %d", len(hist))
	}
	rec := hist[0]
	if rec.Query != "topic" || len(rec.Selected) != 1 || rec.Selected[0] != "a" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Scores["a"] != 0.2 {
		t.Errorf("recorded score = %v, want 0.2", rec.Scores["a"])
	}
	if rec.Timestamp.IsZero() {
		t.Error("record missing timestamp")
	}
}

func TestRouterColorSchemeScenario(t *testing.T) {
	a := keywordExpert("A", domain.DomainUIUXDesign, "color", "design")
	b := keywordExpert("B", domain.DomainSecurity, "security")
	reg := NewRegistry(testLogger())
	for _, e := range []domain.ExpertMetadata{a, b} {
		if err := reg.Register(e); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	r := NewRouter(reg, NewScorer(DefaultScoringWeights()), testLogger())
	ctx := context.Background()

	got := r.Route(ctx, "improve my color scheme", nil, RouteOptions{})
	if len(got) != 1 || got[0].ExpertID != "A" {
		t.Fatalf("selected %v, want only A", selectionIDs(got))
	}
	if got[0].Score <= 0 {
		t.Errorf("A score = %v, want > 0", got[0].Score)
	}

	if got := r.Route(ctx, "totally unrelated banana bread recipe", nil, RouteOptions{}); len(got) != 0 {
		t.Errorf("selected %v, want empty", selectionIDs(got))
	}

	// Disabling A removes it from the original query's results.
	if !reg.SetEnabled("A", false) {
		t.Fatal("SetEnabled failed")
	}
	if got := r.Route(ctx, "improve my color scheme", nil, RouteOptions{}); len(got) != 0 {
		t.Errorf("selected %v after disabling A, want empty", selectionIDs(got))
	}
}

func TestRouterConcurrentRouting(t *testing.T) {
	r := newTestRouter(t,
		keywordExpert("a", domain.DomainCore, "alpha"),
		keywordExpert("b", domain.DomainCore, "beta"),
	)

	const goroutines = 8
	const perGoroutine = 25
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				r.Route(context.Background(), "alpha beta", nil, RouteOptions{})
				r.Statistics()
			}
		}()
	}
	wg.Wait()

	stats := r.Statistics()
	if want := goroutines * perGoroutine; stats.TotalQueries != want {
		t.Errorf("TotalQueries = %d, want %d", stats.TotalQueries, want)
	}
	if stats.PerExpertUsage["a"] != goroutines*perGoroutine {
		t.Errorf("usage[a] = %d, want %d", stats.PerExpertUsage["a"], goroutines*perGoroutine)
	}
}
