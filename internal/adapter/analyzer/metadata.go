package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"ghst-moe/internal/domain"
)

// MetadataAnalyzer is the fallback analysis for experts without a real
// backend: it answers with the expert's own metadata. Useful in demos and
// as the default binding for the builtin roster.
type MetadataAnalyzer struct {
	meta domain.ExpertMetadata
}

// NewMetadataAnalyzer creates a fallback analyzer for meta.
func NewMetadataAnalyzer(meta domain.ExpertMetadata) *MetadataAnalyzer {
	return &MetadataAnalyzer{meta: meta.Clone()}
}

type metadataPayload struct {
	Message        string `json:"message"`
	Specialization string `json:"specialization"`
}

// Analyze implements domain.ExpertAnalyzer.
func (a *MetadataAnalyzer) Analyze(ctx context.Context, query string, _ *domain.QueryContext) (domain.AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisReport{}, err
	}

	payload, err := json.Marshal(metadataPayload{
		Message:        fmt.Sprintf("%s available for %s", a.meta.Name, a.meta.Expertise),
		Specialization: a.meta.Specialization,
	})
	if err != nil {
		return domain.AnalysisReport{}, domain.WrapOp("MetadataAnalyzer.Analyze", err)
	}

	return domain.AnalysisReport{
		ExpertID: a.meta.ExpertID,
		Name:     a.meta.Name,
		Summary:  a.meta.Expertise,
		Payload:  payload,
	}, nil
}

var _ domain.ExpertAnalyzer = (*MetadataAnalyzer)(nil)
