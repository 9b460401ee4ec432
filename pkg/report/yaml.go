package report

import "gopkg.in/yaml.v3"

// yamlDocument mirrors jsonDocument's stable wire shape with yaml tags,
// so the YAML and JSON renderings of the same DeepContext agree field
// for field.
type yamlDocument struct {
	Metadata          yamlMetadata         `yaml:"metadata"`
	Analyses          yamlAnalyses         `yaml:"analyses"`
	QualityScorecard  QualityScorecard     `yaml:"quality_scorecard"`
	DefectSummary     DefectSummary        `yaml:"defect_summary"`
	Recommendations   []yamlRecommendation `yaml:"recommendations,omitempty"`
	CrossLanguageRefs []CrossLanguageRef   `yaml:"cross_language_refs,omitempty"`
	Warnings          []string             `yaml:"warnings,omitempty"`
}

type yamlMetadata struct {
	ToolName    string `yaml:"tool_name"`
	ToolVersion string `yaml:"tool_version"`
	ProjectRoot string `yaml:"project_root"`
	GeneratedAt string `yaml:"generated_at"`
	Partial     bool   `yaml:"partial"`
}

type yamlAnalyses struct {
	AstFileCount int `yaml:"ast_file_count"`
	Complexity   any `yaml:"complexity,omitempty"`
	Churn        any `yaml:"churn,omitempty"`
	Dag          any `yaml:"dag,omitempty"`
	DeadCode     any `yaml:"dead_code,omitempty"`
	Satd         any `yaml:"satd,omitempty"`
	Tdg          any `yaml:"tdg,omitempty"`
}

type yamlRecommendation struct {
	FilePath          string  `yaml:"file_path"`
	Type              string  `yaml:"type"`
	ExpectedReduction float64 `yaml:"expected_reduction"`
	EstimatedHours    float64 `yaml:"estimated_hours"`
	Priority          int     `yaml:"priority"`
}

// ToYAML renders dc in the same shape as ToJSON, for callers that pipe
// deepscan's report into YAML-consuming tooling (CI gate configs, GitOps
// manifests) instead of JSON.
func ToYAML(dc *DeepContext) ([]byte, error) {
	doc := yamlDocument{
		Metadata: yamlMetadata{
			ToolName:    dc.Metadata.ToolName,
			ToolVersion: dc.Metadata.ToolVersion,
			ProjectRoot: dc.Metadata.ProjectRoot,
			GeneratedAt: dc.Metadata.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Partial:     dc.Metadata.Partial,
		},
		Analyses: yamlAnalyses{
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
		doc.Recommendations = append(doc.Recommendations, yamlRecommendation{
			FilePath:          r.FilePath,
			Type:              r.Type.String(),
			ExpectedReduction: r.ExpectedReduction,
			EstimatedHours:    r.EstimatedHours,
			Priority:          r.Priority,
		})
	}

	return yaml.Marshal(doc) //nolint:wrapcheck // yaml.Marshal's own error is already specific enough.
}
