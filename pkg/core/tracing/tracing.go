// Package tracing installs the OpenTelemetry tracer provider that flow and
// HTTP spans are reported to.
package tracing

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var (
	providerOnce sync.Once
	provider     *sdktrace.TracerProvider
	providerErr  error
)

// Init exports spans with the stdout exporter, to os.Stdout when output is
// "-" or empty and to the named file otherwise. Only the first call installs a
// provider. The returned function flushes and stops it.
func Init(serviceName, serviceVersion, output string) (func(context.Context) error, error) {
	var w io.Writer = os.Stdout
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

// InitWithExporter is Init with a caller-supplied exporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (func(context.Context) error, error) {
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}

		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
	})
	if providerErr != nil {
		return nil, providerErr
	}
	return provider.Shutdown, nil
}

// Middleware wraps every request in a server span named after its method and
// path and records the response status on it.
func Middleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("codecanvas/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.Int("http.status_code", rec.status),
		)
		SetStatusFromHTTPCode(span, rec.status)
	})
}

// SetStatusFromHTTPCode marks 4xx and 5xx responses as errors.
func SetStatusFromHTTPCode(span trace.Span, code int) {
	switch {
	case code >= 100 && code < 400:
		span.SetStatus(codes.Ok, "")
	case code >= 400 && code < 500:
		span.SetStatus(codes.Error, "client error")
	case code >= 500:
		span.SetStatus(codes.Error, "server error")
	default:
		span.SetStatus(codes.Unset, "")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
