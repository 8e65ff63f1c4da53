package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
)

// RegisterHealth registers /health and /ready. ready pings the storage
// backend when one is given.
func RegisterHealth(h *server.Hertz, backend Pinger, name string) {
	h.GET(PathHealth, func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})
	h.GET(PathReady, func(c context.Context, ctx *app.RequestContext) {
		if backend != nil {
			pingCtx, cancel := context.WithTimeout(c, 400*time.Millisecond)
			defer cancel()
			if err := backend.Ping(pingCtx); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, map[string]any{"status": "degraded", "backend": name, "error": err.Error()})
				return
			}
		}
		ctx.JSON(http.StatusOK, map[string]any{"status": "ready", "backend": name})
	})
}
