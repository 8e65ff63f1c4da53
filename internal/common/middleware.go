package common

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 64
)

// Middlewares returns the admin chain: request id first so recovery and the
// access log can both report it.
func Middlewares() []app.HandlerFunc {
	return []app.HandlerFunc{
		requestIDMiddleware(),
		recoveryMiddleware(),
		accessLogMiddleware(),
	}
}

// RequestID returns the id assigned to the request, or "".
func RequestID(ctx *app.RequestContext) string {
	return ctx.GetString(RequestIDKey)
}

func recoveryMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if r := recover(); r != nil {
				L().Error("panic recovered",
					zap.Any("err", r),
					zap.String("request_id", RequestID(ctx)),
					zap.String("path", string(ctx.Path())))
				WriteError(c, ctx, 500, ErrCodeInternal, "internal server error")
				ctx.Abort()
			}
		}()
		ctx.Next(c)
	}
}

// requestIDMiddleware keeps a caller supplied id only when it is short and
// printable; anything else is replaced so it cannot pollute the logs.
func requestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(requestIDHeader))
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		ctx.Set(RequestIDKey, id)
		ctx.Response.Header.Set(requestIDHeader, id)
		ctx.Next(c)
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

func accessLogMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		status := ctx.Response.StatusCode()
		level := zapcore.InfoLevel
		if status >= 500 {
			level = zapcore.WarnLevel
		}
		L().Log(level, "access",
			zap.String("request_id", RequestID(ctx)),
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
