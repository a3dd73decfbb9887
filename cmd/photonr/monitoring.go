package main

import (
	"fmt"
	"time"

	"photonr/rendermetrics"

	"cloud.google.com/go/profiler"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// startMonitoring wires up whichever of profiling, tracing and metrics export
// were requested.  The returned function flushes exporters and must be called
// before exit; a render is short-lived and would otherwise lose its data.
func startMonitoring() (func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if enableProfiling {
		if err := profiler.Start(profiler.Config{
			Service:        "photonr",
			ServiceVersion: "0.0.1",
			ProjectID:      monitoringProject,
		}); err != nil {
			return cleanup, fmt.Errorf("while starting profiler: %w", err)
		}
	}

	if enableTracing {
		traceOpts := []cloudtrace.Option{}
		if monitoringProject != "" {
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(monitoringTraceRatio)))
		if err != nil {
			return cleanup, fmt.Errorf("while installing Cloud Trace pipeline: %w", err)
		}
		cleanups = append(cleanups, traceShutdown)
	}

	if enableMetrics {
		if err := rendermetrics.RegisterViews(); err != nil {
			return cleanup, fmt.Errorf("while registering metric views: %w", err)
		}

		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID:         monitoringProject,
			MetricPrefix:      "photonr",
			ReportingInterval: 60 * time.Second,
		})
		if err != nil {
			return cleanup, fmt.Errorf("while creating Stackdriver exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return cleanup, fmt.Errorf("while starting metrics exporter: %w", err)
		}
		cleanups = append(cleanups, func() {
			exporter.StopMetricsExporter()
			exporter.Flush()
			glog.Infof("Flushed metrics")
		})
	}

	return cleanup, nil
}
