package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newPrometheusMeterProvider builds a MeterProvider whose reader is an
// OTel Prometheus exporter registered against a fresh registry, and
// returns the /metrics scrape handler for that registry alongside it.
// Grounded on the teacher's own PrometheusHandler, generalized to hand
// back the MeterProvider itself rather than discarding it: the teacher's
// own callers only wanted the handler, but Init needs the provider to
// satisfy the metric.MeterProvider every analysis instrument is built
// against.
func newPrometheusMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return mp, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
