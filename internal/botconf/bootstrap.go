package botconf

import (
	"context"

	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/observability"
)

type RuntimeHooks struct{ Shutdown func(context.Context) }

// InitRuntime wires the metrics listener and tracing.
func InitRuntime(ctx context.Context, cfg *Config) *RuntimeHooks {
	var shutdowns []func(context.Context) error

	if srv := observability.InitMetrics(cfg.Observability.Service, cfg.Observability.MetricsAddr); srv != nil {
		shutdowns = append(shutdowns, srv.Shutdown)
	}
	if closer, err := observability.InitTracing(cfg.Observability.Service); err == nil && closer != nil {
		shutdowns = append(shutdowns, closer)
	} else if err != nil {
		common.L().Warn("tracing init failed", zap.Error(err))
	}
	common.L().Info("runtime init complete",
		zap.String("service", cfg.Observability.Service),
		zap.String("env", cfg.Env),
		zap.String("metrics_addr", cfg.Observability.MetricsAddr),
		zap.String("store_backend", cfg.Store.Backend))
	return &RuntimeHooks{Shutdown: func(c context.Context) {
		for _, fn := range shutdowns {
			_ = fn(c)
		}
	}}
}
