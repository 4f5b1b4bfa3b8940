package domain

import "strings"

// ExpertDomain is the coarse category an expert belongs to.
// The set below is the known enumeration; unknown values are tolerated
// everywhere and simply never match during scoring.
type ExpertDomain string

const (
	DomainCore          ExpertDomain = "core"
	DomainMusicTheory   ExpertDomain = "music_theory"
	Domain3DPrinting    ExpertDomain = "3d_printing"
	DomainUIUXDesign    ExpertDomain = "ui_ux_design"
	DomainEngineering   ExpertDomain = "engineering"
	DomainMathematics   ExpertDomain = "mathematics"
	DomainSecurity      ExpertDomain = "security"
	DomainPerformance   ExpertDomain = "performance"
	DomainDocumentation ExpertDomain = "documentation"
	DomainTesting       ExpertDomain = "testing"
	DomainDeployment    ExpertDomain = "deployment"
	DomainAIML          ExpertDomain = "ai_ml"
	DomainDataScience   ExpertDomain = "data_science"
	DomainEthics        ExpertDomain = "ethics"
	DomainResearch      ExpertDomain = "research"
)

// KnownDomains returns the closed enumeration in declaration order.
func KnownDomains() []ExpertDomain {
	return []ExpertDomain{
		DomainCore, DomainMusicTheory, Domain3DPrinting, DomainUIUXDesign,
		DomainEngineering, DomainMathematics, DomainSecurity, DomainPerformance,
		DomainDocumentation, DomainTesting, DomainDeployment, DomainAIML,
		DomainDataScience, DomainEthics, DomainResearch,
	}
}

// IsKnown reports whether d is part of the known enumeration.
func (d ExpertDomain) IsKnown() bool {
	for _, k := range KnownDomains() {
		if d == k {
			return true
		}
	}
	return false
}

// DisplayName returns a human-friendly form, e.g. "ui_ux_design" -> "Ui Ux Design".
func (d ExpertDomain) DisplayName() string {
	words := strings.Split(string(d), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ExpertMetadata describes one expert's identity, domain and matching criteria.
// Records are immutable after registration: the registry hands out copies and
// mutation goes through Register with a replacement record.
type ExpertMetadata struct {
	ExpertID       string       `json:"expert_id" yaml:"expert_id"`
	Name           string       `json:"name" yaml:"name"`
	Domain         ExpertDomain `json:"domain" yaml:"domain"`
	Expertise      string       `json:"expertise" yaml:"expertise"`
	Specialization string       `json:"specialization" yaml:"specialization"`
	Keywords       []string     `json:"keywords" yaml:"keywords"`
	Enabled        bool         `json:"enabled" yaml:"enabled"`
	Version        string       `json:"version" yaml:"version"`
	Description    string       `json:"description,omitempty" yaml:"description,omitempty"`

	// Opaque references to external resources; the router never interprets them.
	FragmentsPath string `json:"fragments_path,omitempty" yaml:"fragments_path,omitempty"`
	ModelPath     string `json:"model_path,omitempty" yaml:"model_path,omitempty"`
}

// Validate checks registration preconditions.
func (m ExpertMetadata) Validate() error {
	if strings.TrimSpace(m.ExpertID) == "" {
		return NewDomainError("ExpertMetadata.Validate", ErrInvalidInput, "expert_id must be non-empty")
	}
	return nil
}

// Clone returns a deep copy safe to hand across the registry boundary.
func (m ExpertMetadata) Clone() ExpertMetadata {
	out := m
	if m.Keywords != nil {
		out.Keywords = make([]string, len(m.Keywords))
		copy(out.Keywords, m.Keywords)
	}
	return out
}
