package domain

import "testing"

func TestKnownDomains(t *testing.T) {
	domains := KnownDomains()
	if len(domains) != 15 {
		t.Fatalf("len = %d, want 15", len(domains))
	}
	seen := make(map[ExpertDomain]bool, len(domains))
	for _, d := range domains {
		if seen[d] {
			t.Errorf("duplicate domain %s", d)
		}
		seen[d] = true
		if !d.IsKnown() {
			t.Errorf("%s not IsKnown", d)
		}
	}
	if ExpertDomain("klingon_poetry").IsKnown() {
		t.Error("unknown domain reported as known")
	}
}

func TestDomainDisplayName(t *testing.T) {
	tests := []struct {
		in   ExpertDomain
		want string
	}{
		{DomainCore, "Core"},
		{DomainUIUXDesign, "Ui Ux Design"},
		{DomainMusicTheory, "Music Theory"},
		{Domain3DPrinting, "3d Printing"},
		{ExpertDomain(""), ""},
	}
	for _, tc := range tests {
		if got := tc.in.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpertMetadataValidate(t *testing.T) {
	valid := ExpertMetadata{ExpertID: "x", Name: "X", Domain: DomainCore}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	for _, id := range []string{"", "   ", "\t"} {
		m := ExpertMetadata{ExpertID: id, Name: "X"}
		err := m.Validate()
		if err == nil {
			t.Errorf("expert_id %q accepted", id)
			continue
		}
		if ErrorCodeOf(err) != CodeInvalidInput {
			t.Errorf("code = %s, want INVALID_INPUT", ErrorCodeOf(err))
		}
	}
}

func TestExpertMetadataClone(t *testing.T) {
	orig := ExpertMetadata{
		ExpertID: "x",
		Keywords: []string{"a", "b"},
	}
	clone := orig.Clone()
	clone.Keywords[0] = "mutated"
	if orig.Keywords[0] != "a" {
		t.Error("Clone shares the keywords slice")
	}

	// Nil keywords stay nil rather than becoming an empty slice.
	empty := ExpertMetadata{ExpertID: "y"}
	if empty.Clone().Keywords != nil {
		t.Error("Clone invented a keywords slice")
	}
}

func TestQueryContextNilSafety(t *testing.T) {
	var qctx *QueryContext
	if qctx.Prefers("x") || qctx.Favors("x") || qctx.DomainDisabled(DomainCore) {
		t.Error("nil context must report no hints")
	}
}

func TestQueryContextLookups(t *testing.T) {
	qctx := &QueryContext{
		PreferredExperts: []string{"a", "b"},
		UserPreferences: UserPreferences{
			FavoriteExperts: []string{"c"},
			DisabledDomains: []ExpertDomain{DomainEthics},
		},
	}

	if !qctx.Prefers("a") || qctx.Prefers("c") {
		t.Error("Prefers mismatch")
	}
	if !qctx.Favors("c") || qctx.Favors("a") {
		t.Error("Favors mismatch")
	}
	if !qctx.DomainDisabled(DomainEthics) || qctx.DomainDisabled(DomainCore) {
		t.Error("DomainDisabled mismatch")
	}
}
