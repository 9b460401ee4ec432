package report

import (
	"encoding/json"
	"fmt"

	"github.com/latticeforge/deepscan/pkg/deadcode"
	"github.com/latticeforge/deepscan/pkg/metrics"
	"github.com/latticeforge/deepscan/pkg/tdg"
)

// SARIF 2.1.0 is not emitted by any example repo in this module's
// lineage, and no ecosystem SARIF-writer library appears anywhere in
// the retrieved corpus (see DESIGN.md's standard-library-only
// justification for this serializer). The schema is modeled directly
// with encoding/json struct tags, the same way the rest of this module
// emits its own JSON via tagged structs rather than a templating layer.

const sarifSchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
const sarifVersion = "2.1.0"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMultiformatString `json:"shortDescription"`
}

type sarifMultiformatString struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMultiformatString `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

const (
	ruleTDG      = "tdg-severity"
	ruleDeadCode = "dead-code"
	ruleSatd     = "satd"
)

// sarifLevelForTDG maps TDG severity to a SARIF result level, per
// spec.md §4.10: "Critical→error, Warning→warning, else→note".
func sarifLevelForTDG(sev tdg.Severity) string {
	switch sev {
	case tdg.SeverityCritical:
		return "error"
	case tdg.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// sarifLevelForSATD maps an SATD marker's risk level onto a SARIF
// result level using the same Critical/High→error, Medium→warning,
// Low→note bucketing as sarifLevelForTDG.
func sarifLevelForSATD(level metrics.RiskLevel) string {
	switch level {
	case metrics.RiskCritical, metrics.RiskHigh:
		return "error"
	case metrics.RiskMedium:
		return "warning"
	default:
		return "note"
	}
}

// ToSARIF renders dc's defect-relevant findings (TDG severity, proven
// dead code, SATD markers) as a SARIF 2.1.0 document with one `runs[]`
// entry naming this analyzer, per spec.md §6 "File formats produced (b)".
func ToSARIF(dc *DeepContext) ([]byte, error) {
	log := sarifLog{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    dc.Metadata.ToolName,
						Version: dc.Metadata.ToolVersion,
						Rules:   sarifRules(),
					},
				},
				Results: sarifResults(dc),
			},
		},
	}

	return json.MarshalIndent(log, "", "  ")
}

func sarifRules() []sarifRule {
	return []sarifRule{
		{ID: ruleTDG, Name: "TDGSeverity", ShortDescription: sarifMultiformatString{Text: "Technical debt gradient score exceeds a severity threshold."}},
		{ID: ruleDeadCode, Name: "DeadCode", ShortDescription: sarifMultiformatString{Text: "Function is provably unreachable from any entry point."}},
		{ID: ruleSatd, Name: "SelfAdmittedTechnicalDebt", ShortDescription: sarifMultiformatString{Text: "Comment marks a known defect or shortcut (TODO/FIXME/HACK/XXX/NOTE)."}},
	}
}

func sarifResults(dc *DeepContext) []sarifResult {
	var results []sarifResult

	for _, s := range dc.Analyses.Tdg {
		if s.Severity == tdg.SeverityNormal {
			continue
		}

		results = append(results, sarifResult{
			RuleID:  ruleTDG,
			Level:   sarifLevelForTDG(s.Severity),
			Message: sarifMultiformatString{Text: fmt.Sprintf("TDG value %.2f (%s)", s.Value, s.Severity)},
			Locations: []sarifLocation{
				{PhysicalLocation: sarifPhysicalLocation{ArtifactLocation: sarifArtifactLocation{URI: s.FilePath}}},
			},
		})
	}

	for _, d := range dc.Analyses.DeadCode {
		if d.Status != deadcode.ProvenDead {
			continue
		}

		results = append(results, sarifResult{
			RuleID:  ruleDeadCode,
			Level:   "warning",
			Message: sarifMultiformatString{Text: fmt.Sprintf("%s is unreachable from any entry point", d.Function.Name)},
			Locations: []sarifLocation{
				{PhysicalLocation: sarifPhysicalLocation{ArtifactLocation: sarifArtifactLocation{URI: d.Function.FilePath}}},
			},
		})
	}

	for _, m := range dc.Analyses.Satd {
		results = append(results, sarifResult{
			RuleID:  ruleSatd,
			Level:   sarifLevelForSATD(m.Severity),
			Message: sarifMultiformatString{Text: m.Text},
			Locations: []sarifLocation{
				{PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: m.FilePath},
					Region:           &sarifRegion{StartLine: int(m.Line)},
				}},
			},
		})
	}

	return results
}
