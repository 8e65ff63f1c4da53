// Package admin serves a read-only HTTP view of the storefront state for
// operators: health, catalog, tickets, priced carts and domain counters.
package admin

import (
	"context"
	"sync"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/tracer"
	prom "github.com/hertz-contrib/monitor-prometheus"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/observability"
	"github.com/gogogo1024/storefront-bot/internal/shop"
)

const (
	headerContentType    = "Content-Type"
	contentTypeTextPlain = "text/plain; charset=utf-8"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Shop    *shop.Service
	Backend Pinger
	// BackendName is reported by /ready.
	BackendName string
}

var (
	tracerOnce   sync.Once
	serverTracer tracer.Tracer
)

// httpTracer records Hertz request metrics into the process registry, which
// the metrics listener already exposes.
func httpTracer() tracer.Tracer {
	tracerOnce.Do(func() {
		serverTracer = prom.NewServerTracer("", "/metrics",
			prom.WithRegistry(observability.NewRegistry()),
			prom.WithDisableServer(true))
	})
	return serverTracer
}

// BuildServer assembles the admin server on addr. Spin it to serve.
func BuildServer(addr string, deps Deps) *server.Hertz {
	h := server.New(server.WithHostPorts(addr), server.WithTracer(httpTracer()))
	h.Use(common.Middlewares()...)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		ctx.Response.Header.Set("X-Storefront-Project", common.ProjectName)
		ctx.Response.Header.Set("X-Storefront-Version", common.ProjectVersion)
		ctx.Next(c)
	})
	h.GET(PathDomainMetrics, func(c context.Context, ctx *app.RequestContext) {
		ctx.Response.Header.Set(headerContentType, contentTypeTextPlain)
		ctx.Write([]byte(observability.Snapshot()))
	})
	RegisterHealth(h, deps.Backend, deps.BackendName)
	RegisterCatalog(h, deps.Shop)
	RegisterTickets(h, deps.Shop)
	RegisterCarts(h, deps.Shop)
	return h
}
