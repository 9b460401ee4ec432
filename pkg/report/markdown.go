package report

import (
	"fmt"
	"strings"
)

// ToMarkdown renders dc as a section-oriented human report, per spec.md
// §6 "File formats produced (c)". Section order mirrors the deleted
// renderer's header/key-metrics/distribution/issues layout, generalized
// from terminal output to Markdown headings and tables.
func ToMarkdown(dc *DeepContext) string {
	var b strings.Builder

	writeMarkdownHeader(&b, dc)
	writeMarkdownScorecard(&b, dc)
	writeMarkdownDefects(&b, dc)
	writeMarkdownRecommendations(&b, dc)
	writeMarkdownDependencyGraph(&b, dc)
	writeMarkdownWarnings(&b, dc)

	return b.String()
}

func writeMarkdownHeader(b *strings.Builder, dc *DeepContext) {
	fmt.Fprintf(b, "# %s Report\n\n", dc.Metadata.ToolName)
	fmt.Fprintf(b, "- **Version:** %s\n", dc.Metadata.ToolVersion)
	fmt.Fprintf(b, "- **Project:** %s\n", dc.Metadata.ProjectRoot)
	fmt.Fprintf(b, "- **Generated:** %s\n", dc.Metadata.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))

	if dc.Metadata.Partial {
		b.WriteString("- **Status:** PARTIAL — this run was cancelled or incomplete\n")
	}

	b.WriteString("\n")
}

func writeMarkdownScorecard(b *strings.Builder, dc *DeepContext) {
	sc := dc.QualityScorecard

	b.WriteString("## Quality Scorecard\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(b, "| Files scored | %d |\n", sc.TotalFilesScored)
	fmt.Fprintf(b, "| Average TDG | %.2f |\n", sc.AverageTDG)
	fmt.Fprintf(b, "| Worst TDG | %.2f (%s) |\n", sc.WorstTDG, orDash(sc.WorstFile))
	fmt.Fprintf(b, "| Warning files | %d |\n", sc.WarningCount)
	fmt.Fprintf(b, "| Critical files | %d |\n", sc.CriticalCount)
	fmt.Fprintf(b, "| Dead functions | %d |\n", sc.DeadFunctions)
	fmt.Fprintf(b, "| SATD markers | %d |\n", sc.SatdCount)
	b.WriteString("\n")
}

func writeMarkdownDefects(b *strings.Builder, dc *DeepContext) {
	ds := dc.DefectSummary

	if len(ds.CriticalFiles) == 0 && len(ds.WarningFiles) == 0 && len(ds.DeadFunctions) == 0 {
		return
	}

	b.WriteString("## Defects\n\n")

	if len(ds.CriticalFiles) > 0 {
		b.WriteString("### Critical\n\n")

		for _, f := range ds.CriticalFiles {
			fmt.Fprintf(b, "- %s\n", f)
		}

		b.WriteString("\n")
	}

	if len(ds.WarningFiles) > 0 {
		b.WriteString("### Warning\n\n")

		for _, f := range ds.WarningFiles {
			fmt.Fprintf(b, "- %s\n", f)
		}

		b.WriteString("\n")
	}

	if len(ds.DeadFunctions) > 0 {
		b.WriteString("### Dead Functions\n\n")

		for _, d := range ds.DeadFunctions {
			fmt.Fprintf(b, "- `%s` in %s\n", d.Function.Name, d.Function.FilePath)
		}

		b.WriteString("\n")
	}
}

func writeMarkdownRecommendations(b *strings.Builder, dc *DeepContext) {
	if len(dc.Recommendations) == 0 {
		return
	}

	b.WriteString("## Recommendations\n\n")
	b.WriteString("| Priority | File | Type | Est. Hours |\n")
	b.WriteString("|---|---|---|---|\n")

	for _, r := range dc.Recommendations {
		fmt.Fprintf(b, "| %d | %s | %s | %.1f |\n", r.Priority, r.FilePath, r.Type, r.EstimatedHours)
	}

	b.WriteString("\n")
}

func writeMarkdownDependencyGraph(b *strings.Builder, dc *DeepContext) {
	if dc.Analyses.MermaidDiagram == "" {
		return
	}

	b.WriteString("## Dependency Graph\n\n")
	b.WriteString("```mermaid\n")
	b.WriteString(dc.Analyses.MermaidDiagram)
	b.WriteString("```\n\n")
}

func writeMarkdownWarnings(b *strings.Builder, dc *DeepContext) {
	if len(dc.Warnings) == 0 && len(dc.FileErrors) == 0 {
		return
	}

	b.WriteString("## Warnings\n\n")

	for _, w := range dc.Warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}

	for _, fe := range dc.FileErrors {
		fmt.Fprintf(b, "- %s: %s (%s)\n", fe.Path, fe.Err, fe.Kind)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
