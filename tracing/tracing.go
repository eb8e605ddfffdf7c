package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/viant/guaranty/fault"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/viant/guaranty"

var (
	mux      sync.Mutex
	provider *sdktrace.TracerProvider
)

// Init installs a tracer provider exporting to outputFile, or os.Stdout when
// empty. Only the first installed provider is kept.
func Init(serviceName, serviceVersion, outputFile string) error {
	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		writer = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer))
	if err != nil {
		return err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

// InitWithExporter installs a tracer provider on exporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	mux.Lock()
	defer mux.Unlock()
	if provider != nil {
		return nil
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
	))
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes and removes the installed provider.
func Shutdown(ctx context.Context) error {
	mux.Lock()
	defer mux.Unlock()
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	return err
}

// Span is a lifecycle operation span.
type Span struct {
	span trace.Span
}

// SetPolicy records the policy the operation acts on.
func (s *Span) SetPolicy(policyID, status string) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.String("policy.id", policyID), attribute.String("policy.status", status))
}

// SetAttribute records a string attribute.
func (s *Span) SetAttribute(key, value string) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.String(key, value))
}

// End records the outcome and ends the span. Typed failures carry their
// kind and code as attributes.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
	} else {
		s.span.RecordError(err)
		s.span.SetAttributes(
			attribute.String("fault.kind", string(fault.KindOf(err))),
			attribute.String("fault.code", string(fault.CodeOf(err))),
		)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

// StartOperation starts an internal span named lifecycle.<operation> for a
// caller acting in role.
func StartOperation(ctx context.Context, operation, role string) (context.Context, *Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "lifecycle."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("principal.role", role)))
	return ctx, &Span{span: span}
}
