// Package telemetry sets up OpenTelemetry tracing for the HTTP server.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName names the server in span resources and as the HTTP operation.
const ServiceName = "fleet-api"

// Exporter names accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Setup builds the TracerProvider for exporter and installs it, together with
// W3C trace-context propagation, as the global default. With ExporterStdout
// spans are written as JSON lines to w. The returned shutdown flushes any
// buffered spans and must be called before exit.
func Setup(ctx context.Context, exporter string, w io.Writer) (trace.TracerProvider, func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	switch exporter {
	case "", ExporterNone:
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry.Setup: stdout exporter: %w", err)
		}
		tp, err := NewProvider(ctx, sdktrace.WithBatcher(exp))
		if err != nil {
			return nil, nil, err
		}
		otel.SetTracerProvider(tp)
		return tp, tp.Shutdown, nil
	default:
		return nil, nil, fmt.Errorf("telemetry.Setup: unknown exporter %q", exporter)
	}
}

// NewProvider returns an SDK TracerProvider tagged with ServiceName. opts
// attach span processors or samplers.
func NewProvider(ctx context.Context, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry.NewProvider: resource: %w", err)
	}
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)
	return sdktrace.NewTracerProvider(opts...), nil
}

// NewHandler wraps next so every request runs inside a server span from tp.
// An incoming traceparent header makes that span a child of the caller's.
func NewHandler(next http.Handler, tp trace.TracerProvider) http.Handler {
	return otelhttp.NewHandler(next, ServiceName,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
	)
}
