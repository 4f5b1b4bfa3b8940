package domain

import (
	"context"
	"encoding/json"
)

// UserPreferences carries per-user routing hints.
type UserPreferences struct {
	FavoriteExperts []string       `json:"favorite_experts,omitempty" yaml:"favorite_experts,omitempty"`
	DisabledDomains []ExpertDomain `json:"disabled_domains,omitempty" yaml:"disabled_domains,omitempty"`
}

// QueryContext carries optional per-query hints that bias scoring.
// A nil *QueryContext means no hints.
type QueryContext struct {
	PreferredExperts []string        `json:"preferred_experts,omitempty" yaml:"preferred_experts,omitempty"`
	PrimaryDomain    ExpertDomain    `json:"primary_domain,omitempty" yaml:"primary_domain,omitempty"`
	UserPreferences  UserPreferences `json:"user_preferences,omitempty" yaml:"user_preferences,omitempty"`
}

// Prefers reports whether expertID is in the preferred set.
func (c *QueryContext) Prefers(expertID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.PreferredExperts {
		if id == expertID {
			return true
		}
	}
	return false
}

// Favors reports whether expertID is a user favorite.
func (c *QueryContext) Favors(expertID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.UserPreferences.FavoriteExperts {
		if id == expertID {
			return true
		}
	}
	return false
}

// DomainDisabled reports whether the user disabled d entirely.
func (c *QueryContext) DomainDisabled(d ExpertDomain) bool {
	if c == nil {
		return false
	}
	for _, dd := range c.UserPreferences.DisabledDomains {
		if dd == d {
			return true
		}
	}
	return false
}

// Selection is one routed expert with its relevance score.
// Score is used only for relative ranking; context boosts can push it
// above 1.0 and it is never normalized.
type Selection struct {
	ExpertID  string  `json:"expert_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"relevance_score"`
	Reasoning string  `json:"reasoning"`
}

// AnalysisReport is the opaque, serializable result an analyzer returns.
// The router does not interpret Payload beyond carrying it to the caller.
type AnalysisReport struct {
	ExpertID string          `json:"expert_id"`
	Name     string          `json:"expert_name"`
	Summary  string          `json:"summary,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Score    float64         `json:"relevance_score"`
}

// ExpertAnalyzer is the capability contract for the out-of-scope analysis
// layer. Implementations may be slow or blocking; callers bound them with
// the context.
type ExpertAnalyzer interface {
	Analyze(ctx context.Context, query string, qctx *QueryContext) (AnalysisReport, error)
}

// AnalyzerFunc adapts a function to ExpertAnalyzer.
type AnalyzerFunc func(ctx context.Context, query string, qctx *QueryContext) (AnalysisReport, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, query string, qctx *QueryContext) (AnalysisReport, error) {
	return f(ctx, query, qctx)
}

// ExpertUsage is one entry of the most-used ranking.
type ExpertUsage struct {
	ExpertID string `json:"expert_id"`
	Count    int    `json:"count"`
}

// RouterStatistics is a read-only snapshot of router usage counters.
type RouterStatistics struct {
	TotalQueries      int            `json:"total_queries"`
	PerExpertUsage    map[string]int `json:"per_expert_usage"`
	MostUsed          []ExpertUsage  `json:"most_used"`
	AvgExpertsPerQry  float64        `json:"average_experts_per_query"`
	RegisteredExperts int            `json:"total_registered_experts"`
	EnabledExperts    int            `json:"enabled_experts"`
}
