package usecase

import (
	"fmt"
	"strings"

	"ghst-moe/internal/domain"
)

// minTokenLen is the shortest query/metadata token considered for overlap
// matching. Shorter tokens ("a", "is") match almost anything.
const minTokenLen = 3

// ScoringWeights holds the tuning constants of the relevance function.
// They are arbitrary tuning values carried over from the original system;
// keeping them as configuration lets them be revisited without code changes.
type ScoringWeights struct {
	KeywordHit         float64 `yaml:"keyword_hit"`          // per matching keyword
	KeywordCap         float64 `yaml:"keyword_cap"`          // total keyword contribution cap
	ExpertiseHit       float64 `yaml:"expertise_hit"`        // flat, token overlap with expertise
	SpecializationHit  float64 `yaml:"specialization_hit"`   // flat, token overlap with specialization
	DomainHit          float64 `yaml:"domain_hit"`           // flat, ctx primary domain equals expert domain
	PreferredBoost     float64 `yaml:"preferred_boost"`      // ctx.preferred_experts
	FavoriteBoost      float64 `yaml:"favorite_boost"`       // ctx.user_preferences.favorite_experts
	PrimaryDomainBoost float64 `yaml:"primary_domain_boost"` // stacks with DomainHit
}

// DefaultScoringWeights returns the original tuning values.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		KeywordHit:         0.2,
		KeywordCap:         0.6,
		ExpertiseHit:       0.3,
		SpecializationHit:  0.2,
		DomainHit:          0.1,
		PreferredBoost:     0.2,
		FavoriteBoost:      0.1,
		PrimaryDomainBoost: 0.15,
	}
}

// Scorer computes relevance scores for (query, expert, context) triples.
// It is a pure computation with no side effects.
type Scorer struct {
	weights ScoringWeights
}

// NewScorer creates a Scorer. Zero-valued weights fall back to defaults
// so a missing config section behaves like the original constants.
func NewScorer(w ScoringWeights) *Scorer {
	if w == (ScoringWeights{}) {
		w = DefaultScoringWeights()
	}
	return &Scorer{weights: w}
}

// Weights returns the active tuning constants.
func (s *Scorer) Weights() ScoringWeights { return s.weights }

// Score computes the relevance of expert for query under qctx, along with
// a deterministic reasoning string naming the contributions that fired.
//
// The base score (keywords + expertise + specialization + domain) is
// clamped to 1.0. Context boosts are added afterwards and are
// deliberately not capped: the result ranks experts, it is not a
// probability.
func (s *Scorer) Score(query string, expert domain.ExpertMetadata, qctx *domain.QueryContext) (float64, string) {
	if qctx.DomainDisabled(expert.Domain) {
		return 0, "domain disabled by user preferences"
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(queryLower)

	var score float64
	var reasons []string

	// Keyword contribution, capped.
	matched := matchedKeywords(queryLower, expert.Keywords)
	if len(matched) > 0 {
		kw := float64(len(matched)) * s.weights.KeywordHit
		if kw > s.weights.KeywordCap {
			kw = s.weights.KeywordCap
		}
		score += kw
		shown := matched
		if len(shown) > 3 {
			shown = shown[:3]
		}
		reasons = append(reasons, "keyword match: "+strings.Join(shown, ", "))
	}

	// Flat expertise and specialization contributions on token overlap.
	if tokensOverlap(queryTokens, expert.Expertise) {
		score += s.weights.ExpertiseHit
		reasons = append(reasons, "expertise overlap")
	}
	if tokensOverlap(queryTokens, expert.Specialization) {
		score += s.weights.SpecializationHit
		reasons = append(reasons, "specialization overlap")
	}

	// Base domain contribution: only awarded when the caller names a
	// primary domain and it matches.
	if qctx != nil && qctx.PrimaryDomain != "" && qctx.PrimaryDomain == expert.Domain {
		score += s.weights.DomainHit
		reasons = append(reasons, "domain match")
	}
	if score > 1.0 {
		score = 1.0
	}

	// Context modifiers, applied after the base score and uncapped.
	if qctx.Prefers(expert.ExpertID) {
		score += s.weights.PreferredBoost
		reasons = append(reasons, "preferred expert")
	}
	if qctx.Favors(expert.ExpertID) {
		score += s.weights.FavoriteBoost
		reasons = append(reasons, "user favorite")
	}
	if qctx != nil && qctx.PrimaryDomain != "" && qctx.PrimaryDomain == expert.Domain {
		score += s.weights.PrimaryDomainBoost
		reasons = append(reasons, "primary domain boost")
	}

	if len(reasons) == 0 {
		return score, "no match"
	}
	return score, strings.Join(reasons, "; ")
}

// matchedKeywords returns the expert keywords appearing as substrings of
// the lowercased query, in keyword order.
func matchedKeywords(queryLower string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(queryLower, k) {
			out = append(out, kw)
		}
	}
	return out
}

// tokenize splits lowercased text into whitespace tokens of minTokenLen
// or longer, with common punctuation trimmed.
func tokenize(lower string) []string {
	fields := strings.Fields(lower)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if len(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// tokensOverlap reports whether any query token appears as a substring of
// text, or any text token appears in a query token (case-insensitive).
func tokensOverlap(queryTokens []string, text string) bool {
	textLower := strings.ToLower(text)
	if textLower == "" {
		return false
	}
	textTokens := tokenize(textLower)
	for _, qt := range queryTokens {
		for _, tt := range textTokens {
			if strings.Contains(tt, qt) || strings.Contains(qt, tt) {
				return true
			}
		}
	}
	return false
}

// Validate rejects weight sets that cannot produce a sane ranking.
func (w ScoringWeights) Validate() error {
	if w.KeywordHit < 0 || w.KeywordCap < 0 || w.ExpertiseHit < 0 ||
		w.SpecializationHit < 0 || w.DomainHit < 0 ||
		w.PreferredBoost < 0 || w.FavoriteBoost < 0 || w.PrimaryDomainBoost < 0 {
		return domain.NewDomainError("ScoringWeights.Validate", domain.ErrInvalidInput,
			"weights must be non-negative")
	}
	if w.KeywordCap < w.KeywordHit {
		return domain.NewDomainError("ScoringWeights.Validate", domain.ErrInvalidInput,
			fmt.Sprintf("keyword_cap %.2f below keyword_hit %.2f", w.KeywordCap, w.KeywordHit))
	}
	return nil
}
