// Package analyzer holds the black-box analysis side of the expert system:
// a registry mapping expert IDs to their ExpertAnalyzer implementations,
// plus wrappers (circuit breaker, metadata fallback) applied around them.
package analyzer

import (
	"log/slog"
	"sort"
	"sync"

	"ghst-moe/internal/domain"
)

// Registry maps expert IDs to analyzer implementations. Analyzers are
// supplied externally; the routing core treats them as opaque.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]domain.ExpertAnalyzer
	logger    *slog.Logger
}

// NewRegistry creates an empty analyzer registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		analyzers: make(map[string]domain.ExpertAnalyzer),
		logger:    logger,
	}
}

// Register binds an analyzer to expertID, replacing any previous binding.
func (r *Registry) Register(expertID string, a domain.ExpertAnalyzer) error {
	if expertID == "" {
		return domain.NewDomainError("AnalyzerRegistry.Register", domain.ErrInvalidInput, "empty expert_id")
	}
	if a == nil {
		return domain.NewDomainError("AnalyzerRegistry.Register", domain.ErrInvalidInput, "nil analyzer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[expertID] = a
	r.logger.Debug("analyzer registered", "expert_id", expertID)
	return nil
}

// Unregister removes the binding for expertID. Returns true iff it existed.
func (r *Registry) Unregister(expertID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyzers[expertID]; !ok {
		return false
	}
	delete(r.analyzers, expertID)
	return true
}

// Get returns the analyzer bound to expertID.
func (r *Registry) Get(expertID string) (domain.ExpertAnalyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.analyzers[expertID]
	return a, ok
}

// BindDefaults registers the metadata fallback analyzer for every expert
// lacking a binding, wrapped in a circuit breaker when breaker is non-nil.
// Existing bindings are left untouched, so custom analyzers survive.
func BindDefaults(r *Registry, experts []domain.ExpertMetadata, breaker *BreakerSettings, logger *slog.Logger) error {
	for _, meta := range experts {
		if _, ok := r.Get(meta.ExpertID); ok {
			continue
		}
		var a domain.ExpertAnalyzer = NewMetadataAnalyzer(meta)
		if breaker != nil {
			a = NewCircuitBreakerAnalyzer(meta.ExpertID, a, *breaker, logger)
		}
		if err := r.Register(meta.ExpertID, a); err != nil {
			return err
		}
	}
	return nil
}

// IDs returns the bound expert IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.analyzers))
	for id := range r.analyzers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
