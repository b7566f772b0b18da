package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/app"
	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ContextTimeout creates middleware to set context timeout (supports dependency injection)
// ContextTimeout 创建设置上下文超时的中间件（支持依赖注入）
// 处理器未写出响应且上下文已超时时，返回 504
func ContextTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			app.NewResponse(c).ToResponse(code.ErrorRequestTimeout)
			c.Abort()
		}
	}
}
