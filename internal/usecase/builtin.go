package usecase

import "ghst-moe/internal/domain"

// BuiltinExperts returns the default ghost roster. Order matters: it is
// the registration order and therefore the routing tie-break order.
func BuiltinExperts() []domain.ExpertMetadata {
	return []domain.ExpertMetadata{
		{
			ExpertID:       "analysis_ghost",
			Name:           "Analysis Ghost",
			Domain:         domain.DomainCore,
			Expertise:      "Code analysis and quality assessment",
			Specialization: "Mesh and model quality analysis",
			Keywords:       []string{"analysis", "mesh", "model", "quality", "validation"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialized in analyzing mesh and model quality",
		},
		{
			ExpertID:       "optimization_ghost",
			Name:           "Optimization Ghost",
			Domain:         domain.DomainCore,
			Expertise:      "Algorithm optimization",
			Specialization: "Slicing algorithm optimization",
			Keywords:       []string{"optimization", "performance", "slicing", "algorithm"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialized in optimizing slicing algorithms",
		},
		{
			ExpertID:       "error_ghost",
			Name:           "Error Ghost",
			Domain:         domain.DomainCore,
			Expertise:      "Error detection and correction",
			Specialization: "Error handling and debugging",
			Keywords:       []string{"error", "exception", "debug", "troubleshooting"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialized in error detection and correction",
		},
		{
			ExpertID:       "research_ghost",
			Name:           "Research Ghost",
			Domain:         domain.DomainResearch,
			Expertise:      "Research and innovation",
			Specialization: "FOSS solutions and best practices",
			Keywords:       []string{"research", "foss", "innovation", "solutions"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialized in researching FOSS solutions and innovations",
		},
		{
			ExpertID:       "physics_ghost",
			Name:           "Physics Ghost",
			Domain:         domain.DomainEngineering,
			Expertise:      "Mechanical engineering and fluid dynamics",
			Specialization: "Thermodynamics and material behavior",
			Keywords:       []string{"physics", "mechanics", "thermodynamics", "fluid dynamics"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in mechanical engineering",
		},
		{
			ExpertID:       "materials_ghost",
			Name:           "Materials Ghost",
			Domain:         domain.DomainEngineering,
			Expertise:      "Polymer science and material properties",
			Specialization: "Material chemistry and behavior",
			Keywords:       []string{"materials", "polymer", "chemistry", "properties"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in polymer science",
		},
		{
			ExpertID:       "mathematics_ghost",
			Name:           "Mathematics Ghost",
			Domain:         domain.DomainMathematics,
			Expertise:      "Computational geometry and algorithms",
			Specialization: "Mathematical optimization",
			Keywords:       []string{"mathematics", "geometry", "algorithms", "optimization"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in computational mathematics",
		},
		{
			ExpertID:       "colorscience_ghost",
			Name:           "Color Science Ghost",
			Domain:         domain.DomainUIUXDesign,
			Expertise:      "Color theory and color science",
			Specialization: "Color harmony and perception",
			Keywords:       []string{"color", "design", "visual", "aesthetics"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in color science",
		},
		{
			ExpertID:       "typography_ghost",
			Name:           "Typography Ghost",
			Domain:         domain.DomainUIUXDesign,
			Expertise:      "Typography and font design",
			Specialization: "Type systems and readability",
			Keywords:       []string{"typography", "fonts", "text", "readability"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in typography",
		},
		{
			ExpertID:       "uxdesign_ghost",
			Name:           "UX Design Ghost",
			Domain:         domain.DomainUIUXDesign,
			Expertise:      "User experience design",
			Specialization: "Interface design and usability",
			Keywords:       []string{"ux", "ui", "design", "usability", "interface"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in UX design",
		},
		{
			ExpertID:       "security_ghost",
			Name:           "Security Ghost",
			Domain:         domain.DomainSecurity,
			Expertise:      "Security analysis and vulnerability assessment",
			Specialization: "Code security and best practices",
			Keywords:       []string{"security", "vulnerability", "safety", "protection"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Specialist in code security",
		},
		{
			ExpertID:       "ethics_ghost",
			Name:           "Ethics Ghost",
			Domain:         domain.DomainEthics,
			Expertise:      "AI ethics and responsible development",
			Specialization: "Ethical AI practices",
			Keywords:       []string{"ethics", "responsible", "bias", "fairness", "transparency"},
			Enabled:        true,
			Version:        "1.0.0",
			Description:    "Non-biased ethics specialist",
		},
	}
}

// SeedBuiltin registers the builtin roster into registry.
func SeedBuiltin(registry *Registry) error {
	for _, meta := range BuiltinExperts() {
		if err := registry.Register(meta); err != nil {
			return domain.WrapOp("SeedBuiltin", err)
		}
	}
	return nil
}
