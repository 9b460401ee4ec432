package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticeforge/deepscan/internal/mcpapi"
	"github.com/latticeforge/deepscan/pkg/observability"
	"github.com/latticeforge/deepscan/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server exposing deepscan as an AI-agent tool",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool:
  - deepscan_analyze_project: run the full analysis pipeline over a project
    path and return its report as JSON, Markdown, or SARIF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			providers, err := initMCPObservability(debug, metricsAddr)
			if err != nil {
				return err
			}

			defer func() {
				if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil && providers.Logger != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			if stopMetrics := serveMCPMetrics(metricsAddr, providers); stopMetrics != nil {
				defer stopMetrics()
			}

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err //nolint:wrapcheck // caller's error message is already specific enough.
			}

			srv := mcpapi.NewServer(mcpapi.ServerDeps{Logger: providers.Logger, Metrics: red, Tracer: providers.Tracer})

			return srv.Run(cobraCmd.Context()) //nolint:wrapcheck // Server.Run already wraps its own errors.
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging and 100% trace sampling")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address for the server's lifetime (empty disables it)")

	return cmd
}

func initMCPObservability(debug bool, metricsAddr string) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = observability.ModeMCP
	cfg.LogJSON = true
	cfg.PrometheusEnabled = metricsAddr != ""

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg) //nolint:wrapcheck // Init's own error is already descriptive.
}

// serveMCPMetrics starts an HTTP server on metricsAddr for the Prometheus
// scrape endpoint and returns a function that shuts it down, or nil if
// metrics were not requested or not initialized.
func serveMCPMetrics(metricsAddr string, providers observability.Providers) func() {
	if metricsAddr == "" || providers.MetricsHandler == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", providers.MetricsHandler)

	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && providers.Logger != nil {
			providers.Logger.Warn("metrics server stopped", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout) //nolint:contextcheck // best-effort drain on exit, not tied to the server's own context.
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}
