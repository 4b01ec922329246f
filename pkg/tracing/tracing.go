package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// Provider owns the exporters registered by Init and flushes them on Shutdown.
type Provider struct {
	log        logger.Logger
	flushers   []func()
	metricsSrv *http.Server
}

type traceFactory func(cfg *config.TracingConfig) (trace.Exporter, func(), error)
type metricsFactory func(p *Provider, cfg *config.TracingConfig) (view.Exporter, error)

var traceExporters = map[string]traceFactory{
	"jaeger":      newJaeger,
	"zipkin":      newZipkin,
	"stackdriver": newStackdriverTrace,
	"datadog":     newDatadogTrace,
	"xray":        newXRay,
}

var metricsExporters = map[string]metricsFactory{
	"prometheus":  newPrometheus,
	"stackdriver": newStackdriverMetrics,
	"datadog":     newDatadogMetrics,
}

// Init configures sampling, exporters and views. A disabled config returns a
// provider whose Shutdown is a no-op.
func Init(cfg *config.TracingConfig, log logger.Logger) (*Provider, error) {
	p := &Provider{log: log}
	if cfg == nil || !cfg.Enabled {
		return p, nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if name := strings.TrimSpace(cfg.TraceExporter); name != "" && name != "none" {
		factory, ok := traceExporters[name]
		if !ok {
			return nil, fmt.Errorf("unsupported trace exporter: %s", name)
		}
		exp, flush, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s trace exporter: %w", name, err)
		}
		trace.RegisterExporter(exp)
		if flush != nil {
			p.flushers = append(p.flushers, flush)
		}
		log.WithField("exporter", name).Info("Trace exporter initialized")
	}

	for _, name := range exporterNames(cfg.MetricsExporter) {
		factory, ok := metricsExporters[name]
		if !ok {
			return nil, fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		exp, err := factory(p, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
		view.RegisterExporter(exp)
		log.WithField("exporter", name).Info("Metrics exporter initialized")
	}

	if err := RegisterViews(); err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterViews registers the HTTP server, database and campaign views.
func RegisterViews() error {
	if err := view.Register(ochttp.DefaultServerViews...); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	if err := view.Register(CampaignViews...); err != nil {
		return fmt.Errorf("failed to register campaign views: %w", err)
	}
	return nil
}

// Shutdown flushes pending spans and stops the metrics endpoint.
func (p *Provider) Shutdown(ctx context.Context) error {
	for _, flush := range p.flushers {
		flush()
	}
	if p.metricsSrv != nil {
		return p.metricsSrv.Shutdown(ctx)
	}
	return nil
}

func exporterNames(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name != "" && name != "none" {
			names = append(names, name)
		}
	}
	return names
}

func newJaeger(cfg *config.TracingConfig) (trace.Exporter, func(), error) {
	if cfg.JaegerEndpoint == "" {
		return nil, nil, errors.New("jaeger endpoint is required")
	}
	exp, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		Process:           jaeger.Process{ServiceName: cfg.ServiceName},
	})
	if err != nil {
		return nil, nil, err
	}
	return exp, exp.Flush, nil
}

func newZipkin(cfg *config.TracingConfig) (trace.Exporter, func(), error) {
	if cfg.ZipkinEndpoint == "" {
		return nil, nil, errors.New("zipkin endpoint is required")
	}
	reporter := zipkinhttp.NewReporter(cfg.ZipkinEndpoint)
	return zipkin.NewExporter(reporter, nil), func() { _ = reporter.Close() }, nil
}

func newStackdriverTrace(cfg *config.TracingConfig) (trace.Exporter, func(), error) {
	if cfg.StackdriverProjectID == "" {
		return nil, nil, errors.New("stackdriver project id is required")
	}
	exp, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: cfg.StackdriverProjectID})
	if err != nil {
		return nil, nil, err
	}
	return exp, exp.Flush, nil
}

func newDatadogTrace(cfg *config.TracingConfig) (trace.Exporter, func(), error) {
	if cfg.DatadogAgentAddress == "" {
		return nil, nil, errors.New("datadog agent address is required")
	}
	exp, err := datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: cfg.DatadogAgentAddress,
	})
	if err != nil {
		return nil, nil, err
	}
	return exp, exp.Stop, nil
}

func newXRay(cfg *config.TracingConfig) (trace.Exporter, func(), error) {
	if cfg.XRayRegion == "" {
		return nil, nil, errors.New("aws region is required for x-ray")
	}
	exp, err := aws.NewExporter(aws.WithRegion(cfg.XRayRegion), aws.WithVersion("latest"))
	if err != nil {
		return nil, nil, err
	}
	return exp, exp.Flush, nil
}

func newPrometheus(p *Provider, cfg *config.TracingConfig) (view.Exporter, error) {
	exp, err := prometheus.NewExporter(prometheus.Options{
		Namespace: strings.ReplaceAll(cfg.ServiceName, "-", "_"),
		OnError: func(err error) {
			p.log.WithField("error", err.Error()).Warn("Prometheus exporter error")
		},
	})
	if err != nil {
		return nil, err
	}
	if cfg.PrometheusPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", exp)
		p.metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				p.log.WithField("error", err.Error()).Error("Prometheus metrics server failed")
			}
		}(p.metricsSrv)
	}
	return exp, nil
}

func newStackdriverMetrics(p *Provider, cfg *config.TracingConfig) (view.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, errors.New("stackdriver project id is required")
	}
	return stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			p.log.WithField("error", err.Error()).Warn("Stackdriver metrics exporter error")
		},
	})
}

func newDatadogMetrics(p *Provider, cfg *config.TracingConfig) (view.Exporter, error) {
	if cfg.DatadogAgentAddress == "" {
		return nil, errors.New("datadog agent address is required")
	}
	return datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		StatsAddr: cfg.DatadogAgentAddress,
		OnError: func(err error) {
			p.log.WithField("error", err.Error()).Warn("Datadog metrics exporter error")
		},
	})
}
