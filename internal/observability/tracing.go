package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

const tracerName = "github.com/gogogo1024/storefront-bot"

// InitTracing installs a tracer provider without an exporter.
// Returns a shutdown func to flush spans.
func InitTracing(service string) (func(context.Context) error, error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
			semconv.ServiceVersion(common.ProjectVersion),
		)),
	)
	common.L().Info("tracing initialized", zap.String("service", service), zap.String("exporter", "none"))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func Tracer() trace.Tracer { return otel.Tracer(tracerName) }
