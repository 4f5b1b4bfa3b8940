package usecase

import (
	"testing"

	"ghst-moe/internal/domain"
)

func TestBuiltinExpertsRoster(t *testing.T) {
	experts := BuiltinExperts()
	if len(experts) != 12 {
		t.Fatalf("roster size = %d, want 12", len(experts))
	}

	seen := make(map[string]bool, len(experts))
	for _, e := range experts {
		if err := e.Validate(); err != nil {
			t.Errorf("%s: %v", e.ExpertID, err)
		}
		if seen[e.ExpertID] {
			t.Errorf("duplicate expert_id %s", e.ExpertID)
		}
		seen[e.ExpertID] = true
		if !e.Enabled {
			t.Errorf("%s not enabled", e.ExpertID)
		}
		if !e.Domain.IsKnown() {
			t.Errorf("%s has unknown domain %q", e.ExpertID, e.Domain)
		}
		if len(e.Keywords) == 0 {
			t.Errorf("%s has no keywords", e.ExpertID)
		}
	}

	for _, id := range []string{"analysis_ghost", "security_ghost", "colorscience_ghost", "ethics_ghost"} {
		if !seen[id] {
			t.Errorf("roster missing %s", id)
		}
	}
}

func TestSeedBuiltin(t *testing.T) {
	r := NewRegistry(testLogger())
	if err := SeedBuiltin(r); err != nil {
		t.Fatalf("SeedBuiltin: %v", err)
	}
	if r.Len() != 12 {
		t.Errorf("Len = %d, want 12", r.Len())
	}

	sec, ok := r.Get("security_ghost")
	if !ok {
		t.Fatal("security_ghost not registered")
	}
	if sec.Domain != domain.DomainSecurity {
		t.Errorf("security_ghost domain = %s", sec.Domain)
	}

	// Seeding twice is a no-op overwrite, not a duplicate error.
	if err := SeedBuiltin(r); err != nil {
		t.Fatalf("second SeedBuiltin: %v", err)
	}
	if r.Len() != 12 {
		t.Errorf("Len after reseed = %d, want 12", r.Len())
	}
}
