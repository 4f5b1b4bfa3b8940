package usecase

import (
	"log/slog"
	"strings"
	"sync"

	"ghst-moe/internal/domain"
)

// Registry is the authoritative in-memory catalog of expert metadata.
//
// Registration order is preserved and drives deterministic tie-breaking in
// the router. Registering an existing ID overwrites the prior record
// (last-write-wins) while keeping its original position. Import merges
// through the same path; ImportReplace rebuilds the catalog.
//
// Mutations take the write lock; route-time reads take the read lock, so a
// routing pass never observes a partially updated registry.
type Registry struct {
	mu      sync.RWMutex
	experts map[string]domain.ExpertMetadata
	order   []string // expert IDs in first-registration order
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		experts: make(map[string]domain.ExpertMetadata),
		logger:  logger,
	}
}

// Register inserts or overwrites the record for meta.ExpertID.
// Overwrite is a documented last-write-wins semantic, not an error.
func (r *Registry) Register(meta domain.ExpertMetadata) error {
	if err := meta.Validate(); err != nil {
		return domain.WrapOp("Registry.Register", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := meta.Clone()
	if _, exists := r.experts[stored.ExpertID]; !exists {
		r.order = append(r.order, stored.ExpertID)
	} else {
		r.logger.Debug("expert overwritten", "expert_id", stored.ExpertID)
	}
	r.experts[stored.ExpertID] = stored
	r.logger.Info("expert registered",
		"expert_id", stored.ExpertID, "domain", string(stored.Domain), "enabled", stored.Enabled)
	return nil
}

// Unregister removes an expert. Returns true iff an entry existed.
func (r *Registry) Unregister(expertID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.experts[expertID]; !ok {
		return false
	}
	delete(r.experts, expertID)
	for i, id := range r.order {
		if id == expertID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("expert unregistered", "expert_id", expertID)
	return true
}

// Get returns a copy of the record for expertID. A miss is an expected
// case, reported through the bool rather than an error.
func (r *Registry) Get(expertID string) (domain.ExpertMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.experts[expertID]
	if !ok {
		return domain.ExpertMetadata{}, false
	}
	return meta.Clone(), true
}

// SetEnabled flips the enabled flag for expertID. Returns true iff the
// expert exists.
func (r *Registry) SetEnabled(expertID string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.experts[expertID]
	if !ok {
		return false
	}
	meta.Enabled = enabled
	r.experts[expertID] = meta
	r.logger.Info("expert toggled", "expert_id", expertID, "enabled", enabled)
	return true
}

// List returns all records in registration order.
func (r *Registry) List() []domain.ExpertMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(func(domain.ExpertMetadata) bool { return true })
}

// ListEnabled returns enabled records in registration order.
func (r *Registry) ListEnabled() []domain.ExpertMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(func(m domain.ExpertMetadata) bool { return m.Enabled })
}

// ListByDomain returns records in d, in registration order.
func (r *Registry) ListByDomain(d domain.ExpertDomain) []domain.ExpertMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(func(m domain.ExpertMetadata) bool { return m.Domain == d })
}

// Search returns experts whose keywords, expertise or specialization
// contain term (case-insensitive substring). Each expert appears once.
func (r *Registry) Search(term string) []domain.ExpertMetadata {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(func(m domain.ExpertMetadata) bool {
		if strings.Contains(strings.ToLower(m.Expertise), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(m.Specialization), needle) {
			return true
		}
		for _, kw := range m.Keywords {
			if strings.Contains(strings.ToLower(kw), needle) {
				return true
			}
		}
		return false
	})
}

// Export returns an ordered list of plain records sufficient to
// reconstruct the registry.
func (r *Registry) Export() []domain.ExpertMetadata {
	return r.List()
}

// Import merges records into the registry, upserting each through the same
// last-write-wins rule as Register. Records failing validation abort the
// import before any record is applied.
func (r *Registry) Import(records []domain.ExpertMetadata) error {
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return domain.WrapOp("Registry.Import", err)
		}
	}
	for _, rec := range records {
		if err := r.Register(rec); err != nil {
			return domain.WrapOp("Registry.Import", err)
		}
	}
	r.logger.Info("registry import merged", "records", len(records))
	return nil
}

// ImportReplace discards the current catalog and loads records in order.
// The replacement catalog is built off-lock and swapped in under one write
// lock, so concurrent readers see either the old set or the complete new
// set, never an intermediate state.
func (r *Registry) ImportReplace(records []domain.ExpertMetadata) error {
	experts := make(map[string]domain.ExpertMetadata, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return domain.WrapOp("Registry.ImportReplace", err)
		}
		stored := rec.Clone()
		if _, exists := experts[stored.ExpertID]; !exists {
			order = append(order, stored.ExpertID)
		}
		experts[stored.ExpertID] = stored
	}

	r.mu.Lock()
	r.experts = experts
	r.order = order
	r.mu.Unlock()

	r.logger.Info("registry replaced", "records", len(records))
	return nil
}

// Len returns the number of registered experts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.experts)
}

// CountEnabled returns the number of enabled experts.
func (r *Registry) CountEnabled() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, m := range r.experts {
		if m.Enabled {
			n++
		}
	}
	return n
}

// snapshotLocked copies records matching keep, in registration order.
// Caller must hold at least the read lock.
func (r *Registry) snapshotLocked(keep func(domain.ExpertMetadata) bool) []domain.ExpertMetadata {
	out := make([]domain.ExpertMetadata, 0, len(r.order))
	for _, id := range r.order {
		m, ok := r.experts[id]
		if !ok || !keep(m) {
			continue
		}
		out = append(out, m.Clone())
	}
	return out
}
