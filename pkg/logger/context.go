package logger

import (
	"context"

	"go.uber.org/zap"
)

type traceIDKey struct{}

// WithTraceID 将追踪 ID 写入 context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext 从 context 读取追踪 ID
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Ctx 返回附带 context 中追踪 ID 的日志器
func Ctx(ctx context.Context, lg *zap.Logger) *zap.Logger {
	if id := TraceIDFromContext(ctx); id != "" {
		return lg.With(zap.String(FieldTraceID, id))
	}
	return lg
}
