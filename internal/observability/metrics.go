package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

var (
	cmdCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "commands_total",
			Help:      "Total slash commands handled",
		},
		[]string{"command", "outcome"},
	)
	cmdLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "command_duration_seconds",
			Help:      "Slash command latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// Registry is the process registry, set by NewRegistry.
	Registry *prometheus.Registry
	regOnce  sync.Once
)

// NewRegistry creates the process registry with go and process collectors
// plus the command collectors. Later calls return the same registry.
func NewRegistry() *prometheus.Registry {
	regOnce.Do(func() {
		Registry = prometheus.NewRegistry()
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		Registry.MustRegister(cmdCounter, cmdLatency)
	})
	return Registry
}

// InitMetrics exposes /metrics for the process registry on addr. An empty
// addr disables the listener.
func InitMetrics(service, addr string) *http.Server {
	reg := NewRegistry()
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.L().Error("metrics server error", zap.Error(err))
		}
	}()
	common.L().Info("metrics server listening", zap.String("addr", addr), zap.String("service", service))
	return srv
}

// Outcome labels a command result: "ok" or the error code of err.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	code, _ := common.ErrorCode(err)
	return code
}

// Track runs fn inside a span and records its count and latency under
// command.
func Track(ctx context.Context, command string, fn func(context.Context) error) error {
	ctx, span := Tracer().Start(ctx, "command "+command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("storefront.command", command)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := Outcome(err)
	if outcome == common.ErrCodeForbidden {
		PermissionDenied.Add(1)
	}
	span.SetAttributes(attribute.String("storefront.outcome", outcome))
	if outcome == common.ErrCodeInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	cmdCounter.WithLabelValues(command, outcome).Inc()
	cmdLatency.WithLabelValues(command).Observe(time.Since(start).Seconds())
	return err
}
