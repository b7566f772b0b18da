// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/pkg/code"
	apperrors "github.com/haierkeys/note-chain-service/pkg/errors"
	"github.com/haierkeys/note-chain-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// respondError 输出错误响应；存储层错误额外记录日志，其余错误已由 service 记录
func (h *Handler) respondError(c *gin.Context, method string, err error) {
	if !code.IsNotFound(err) && !code.IsConflict(err) {
		h.logError(c.Request.Context(), method, err)
	}
	apperrors.ErrorResponse(c, err)
}

func (h *Handler) logError(ctx context.Context, method string, err error) {
	logger.Ctx(ctx, h.App.Logger()).Error(method, zap.Error(err))
}
