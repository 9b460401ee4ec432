package report

import "encoding/json"

// jsonDocument is the stable wire shape ToJSON serializes: field names
// are explicit rather than relying on DeepContext's Go field names, so a
// future internal rename doesn't silently change the JSON contract.
type jsonDocument struct {
	Metadata          jsonMetadata      `json:"metadata"`
	Analyses          jsonAnalyses      `json:"analyses"`
	QualityScorecard  QualityScorecard  `json:"quality_scorecard"`
	DefectSummary     DefectSummary     `json:"defect_summary"`
	Recommendations   []jsonRecommendation `json:"recommendations"`
	CrossLanguageRefs []CrossLanguageRef `json:"cross_language_refs"`
	Warnings          []string          `json:"warnings"`
}

type jsonMetadata struct {
	ToolName    string `json:"tool_name"`
	ToolVersion string `json:"tool_version"`
	ProjectRoot string `json:"project_root"`
	GeneratedAt string `json:"generated_at"`
	Partial     bool   `json:"partial"`
}

type jsonAnalyses struct {
	AstFileCount int         `json:"ast_file_count"`
	Complexity   any         `json:"complexity,omitempty"`
	Churn        any         `json:"churn,omitempty"`
	Dag          any         `json:"dag,omitempty"`
	DeadCode     any         `json:"dead_code,omitempty"`
	Satd         any         `json:"satd,omitempty"`
	Tdg          any         `json:"tdg,omitempty"`
}

type jsonRecommendation struct {
	FilePath          string  `json:"file_path"`
	Type              string  `json:"type"`
	ExpectedReduction float64 `json:"expected_reduction"`
	EstimatedHours    float64 `json:"estimated_hours"`
	Priority          int     `json:"priority"`
}

// ToJSON renders dc as a single top-level JSON object matching
// DeepContext, per spec.md §6 "File formats produced (a)".
func ToJSON(dc *DeepContext) ([]byte, error) {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			ToolName:    dc.Metadata.ToolName,
			ToolVersion: dc.Metadata.ToolVersion,
			ProjectRoot: dc.Metadata.ProjectRoot,
			GeneratedAt: dc.Metadata.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Partial:     dc.Metadata.Partial,
		},
		Analyses: jsonAnalyses{
			AstFileCount: len(dc.Analyses.AstContexts),
			Complexity:   optionalSlice(dc.Analyses.Complexity),
			Churn:        dc.Analyses.Churn,
			Dag:          dc.Analyses.Dag,
			DeadCode:     optionalSlice(dc.Analyses.DeadCode),
			Satd:         optionalSlice(dc.Analyses.Satd),
			Tdg:          optionalSlice(dc.Analyses.Tdg),
		},
		QualityScorecard:  dc.QualityScorecard,
		DefectSummary:     dc.DefectSummary,
		CrossLanguageRefs: dc.CrossLanguageRefs,
		Warnings:          dc.Warnings,
	}

	for _, r := range dc.Recommendations {
		doc.Recommendations = append(doc.Recommendations, jsonRecommendation{
			FilePath:          r.FilePath,
			Type:              r.Type.String(),
			ExpectedReduction: r.ExpectedReduction,
			EstimatedHours:    r.EstimatedHours,
			Priority:          r.Priority,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// optionalSlice returns nil (so the field is omitted via omitempty) for
// an empty slice, and the slice itself otherwise. Generic so it covers
// every Analyses slice field without per-type boilerplate.
func optionalSlice[T any](s []T) any {
	if len(s) == 0 {
		return nil
	}

	return s
}
