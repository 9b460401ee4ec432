// Package commands provides CLI command implementations for deepscan.
package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/latticeforge/deepscan/internal/pipeline"
	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/cache"
	"github.com/latticeforge/deepscan/pkg/config"
	"github.com/latticeforge/deepscan/pkg/observability"
	"github.com/latticeforge/deepscan/pkg/report"
	"github.com/latticeforge/deepscan/pkg/units"
)

// Output format names accepted by --format.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatSARIF    = "sarif"
	FormatText     = "text"
	FormatHTML     = "html"
)

const (
	defaultParseCacheEntries = 4096
	defaultTdgCacheEntries   = 4096
	defaultCacheTTL          = 24 * time.Hour

	// metricsShutdownTimeout bounds how long the metrics HTTP server gets
	// to drain in-flight scrapes when the run finishes.
	metricsShutdownTimeout = 5 * time.Second

	// metricsReadHeaderTimeout guards the metrics HTTP server against
	// slowloris-style clients that never finish sending headers.
	metricsReadHeaderTimeout = 3 * time.Second
)

// defaultCacheMaxBytes bounds each in-memory cache layer by size in
// addition to entry count, unless overridden by --cache-max-bytes.
const defaultCacheMaxBytes = 256 * units.MiB

// RunCommand holds the flags for the run command.
type RunCommand struct {
	path          string
	format        string
	output        string
	configFile    string
	cacheDir      string
	cacheMaxSize  string
	cacheCompress bool
	workers       int
	noColor       bool
	silent        bool
	debugTrace    bool
	metricsAddr   string
}

// NewRunCommand creates and configures the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{format: FormatText}

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Analyze a project and emit a report",
		Long:  "Discover a project's source files, parse and analyze them, and emit a unified DeepContext report.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().StringVarP(&rc.path, "path", "p", ".", "Project root to analyze")
	cmd.Flags().StringVarP(&rc.format, "format", "f", FormatText, "Output format: text, json, yaml, markdown, sarif, or html")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&rc.configFile, "config", "", "Analysis options file (default: deepscan.yaml in CWD)")
	cmd.Flags().StringVar(&rc.cacheDir, "cache-dir", "", "Directory for the on-disk cache layer (empty disables it)")
	cmd.Flags().StringVar(&rc.cacheMaxSize, "cache-max-bytes", "", "Per-layer in-memory cache size budget, e.g. 512MB (default 256MiB)")
	cmd.Flags().BoolVar(&rc.cacheCompress, "cache-compress-disk", false, "LZ4-compress the on-disk cache tier (ignored without --cache-dir)")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Parse-stage worker count (0 = automatic)")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored text-format output")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Suppress progress output")
	cmd.Flags().BoolVar(&rc.debugTrace, "debug-trace", false, "Enable 100% trace sampling for debugging")
	cmd.Flags().StringVar(&rc.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address during the run (empty disables it)")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	path := rc.resolvePath(args)

	obsCfg := observability.DefaultConfig()
	obsCfg.TraceVerbose = rc.debugTrace
	obsCfg.PrometheusEnabled = rc.metricsAddr != ""

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		if shutdownErr := providers.Shutdown(ctx); shutdownErr != nil && providers.Logger != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	if stopMetrics := rc.serveMetrics(providers); stopMetrics != nil {
		defer stopMetrics()
	}

	opts, err := config.LoadAnalysisOptions(rc.configFile)
	if err != nil {
		return fmt.Errorf("load analysis options: %w", err)
	}

	if rc.workers > 0 {
		opts.Parallel = true
	}

	parseCache, tdgCache, err := rc.buildCaches()
	if err != nil {
		return fmt.Errorf("build caches: %w", err)
	}

	metrics, err := observability.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("build analysis metrics: %w", err)
	}

	if err := observability.RegisterCacheMetrics(providers.Meter, cacheStatsAdapter{parseCache.Stats}, cacheStatsAdapter{tdgCache.Stats}); err != nil {
		return fmt.Errorf("register cache metrics: %w", err)
	}

	rc.progressf(cmd.ErrOrStderr(), "analyzing path=%s", path)

	p := pipeline.New(pipeline.Config{
		Options:  *opts,
		Cache:    parseCache,
		TdgCache: tdgCache,
		Workers:  rc.workers,
		Metrics:  metrics,
	})

	dc, err := p.Run(ctx, path)
	if err != nil {
		return fmt.Errorf("run analysis: %w", err)
	}

	rc.progressf(cmd.ErrOrStderr(), "done: %d files, overall health %.1f", len(dc.Analyses.AstContexts), dc.QualityScorecard.OverallHealth)
	rc.progressf(cmd.ErrOrStderr(), "cache: parse %s / %s, tdg %s / %s",
		humanize.IBytes(uint64(parseCache.Stats().TotalBytes)), humanize.IBytes(uint64(parseCache.Stats().MaxBytes)),
		humanize.IBytes(uint64(tdgCache.Stats().TotalBytes)), humanize.IBytes(uint64(tdgCache.Stats().MaxBytes)))

	return rc.write(cmd, dc)
}

// serveMetrics starts an HTTP server on rc.metricsAddr for the
// Prometheus scrape endpoint and returns a function that shuts it down,
// or nil if metrics were not requested or not initialized.
func (rc *RunCommand) serveMetrics(providers observability.Providers) func() {
	if rc.metricsAddr == "" || providers.MetricsHandler == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", providers.MetricsHandler)

	srv := &http.Server{Addr: rc.metricsAddr, Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && providers.Logger != nil {
			providers.Logger.Warn("metrics server stopped", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout) //nolint:contextcheck // best-effort drain on exit, not tied to the run's own context.
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}

func (rc *RunCommand) resolvePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return rc.path
}

func (rc *RunCommand) buildCaches() (*cache.Layered[*ast.FileContext], *cache.Layered[[][]byte], error) {
	parseDir, tdgDir := "", ""
	if rc.cacheDir != "" {
		parseDir = filepath.Join(rc.cacheDir, "parse")
		tdgDir = filepath.Join(rc.cacheDir, "tdg")
	}

	maxBytes := int64(defaultCacheMaxBytes)

	if rc.cacheMaxSize != "" {
		parsed, err := humanize.ParseBytes(rc.cacheMaxSize)
		if err != nil {
			return nil, nil, fmt.Errorf("parse --cache-max-bytes: %w", err)
		}

		maxBytes = int64(parsed)
	}

	parseCache, err := cache.NewLayered[*ast.FileContext](cache.LayeredOptions{
		MaxEntries:   defaultParseCacheEntries,
		MaxBytes:     maxBytes,
		TTL:          defaultCacheTTL,
		DiskDir:      parseDir,
		CompressDisk: rc.cacheCompress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build parse cache: %w", err)
	}

	tdgCache, err := cache.NewLayered[[][]byte](cache.LayeredOptions{
		MaxEntries:   defaultTdgCacheEntries,
		MaxBytes:     maxBytes,
		TTL:          defaultCacheTTL,
		DiskDir:      tdgDir,
		CompressDisk: rc.cacheCompress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build tdg cache: %w", err)
	}

	return parseCache, tdgCache, nil
}

func (rc *RunCommand) write(cmd *cobra.Command, dc *report.DeepContext) error {
	w := cmd.OutOrStdout()

	if rc.output != "" {
		f, err := os.Create(rc.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()

		w = f
	}

	switch rc.format {
	case FormatJSON:
		body, err := report.ToJSON(dc)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		_, err = w.Write(body)

		return err //nolint:wrapcheck // write failures need no extra context here.
	case FormatYAML:
		body, err := report.ToYAML(dc)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		_, err = w.Write(body)

		return err //nolint:wrapcheck // same as above.
	case FormatMarkdown:
		_, err := io.WriteString(w, report.ToMarkdown(dc))

		return err //nolint:wrapcheck // same as above.
	case FormatSARIF:
		body, err := report.ToSARIF(dc)
		if err != nil {
			return fmt.Errorf("encode sarif: %w", err)
		}

		_, err = w.Write(body)

		return err //nolint:wrapcheck // same as above.
	case FormatHTML:
		body, err := report.ToHTML(dc)
		if err != nil {
			return fmt.Errorf("encode html: %w", err)
		}

		_, err = w.Write(body)

		return err //nolint:wrapcheck // same as above.
	default:
		return rc.writeText(w, dc)
	}
}

// writeText renders the scorecard as a console table, grounded on the
// teacher's own table.Writer/fatih-color idiom for terminal summaries.
func (rc *RunCommand) writeText(w io.Writer, dc *report.DeepContext) error {
	color.NoColor = rc.noColor //nolint:reassign // intentional override of library global

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Overall health", fmt.Sprintf("%.1f", dc.QualityScorecard.OverallHealth)},
		{"Average TDG", fmt.Sprintf("%.2f", dc.QualityScorecard.AverageTDG)},
		{"Worst TDG", fmt.Sprintf("%.2f (%s)", dc.QualityScorecard.WorstTDG, orDash(dc.QualityScorecard.WorstFile))},
		{"Warnings", dc.QualityScorecard.WarningCount},
		{"Critical", dc.QualityScorecard.CriticalCount},
		{"Files scored", dc.QualityScorecard.TotalFilesScored},
		{"SATD markers", dc.QualityScorecard.SatdCount},
		{"Dead functions", dc.QualityScorecard.DeadFunctions},
	})
	t.Render()

	if len(dc.FileErrors) > 0 {
		warn := color.New(color.FgYellow)
		warn.Fprintf(w, "\n%d file(s) failed to parse:\n", len(dc.FileErrors))

		for _, fe := range dc.FileErrors {
			warn.Fprintf(w, "  - %s: %v\n", fe.Path, fe.Err)
		}
	}

	if dc.Metadata.Partial {
		color.New(color.FgRed).Fprintln(w, "\nreport is PARTIAL (analysis was cancelled or a file set failed to land)")
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func (rc *RunCommand) progressf(w io.Writer, format string, args ...any) {
	if rc.silent {
		return
	}

	fmt.Fprintf(w, format+"\n", args...)
}

// cacheStatsAdapter satisfies observability.CacheStatsProvider over any
// *cache.Layered[V].Stats method without importing pkg/cache from
// pkg/observability.
type cacheStatsAdapter struct {
	stats func() cache.Metrics
}

func (a cacheStatsAdapter) CacheHits() int64   { return a.stats().Hits }
func (a cacheStatsAdapter) CacheMisses() int64 { return a.stats().Misses }
