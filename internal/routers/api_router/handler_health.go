package api_router

import (
	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/dto"
	pkgapp "github.com/haierkeys/note-chain-service/pkg/app"
	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	health := dto.HealthDTO{
		Status:   "healthy",
		Database: "connected",
		Dialect:  h.App.Dao.Dialect(),
	}

	// 检查数据库连接
	if err := h.App.Dao.Ping(c.Request.Context()); err != nil {
		h.App.Logger().Warn("HealthHandler.Check ping failed", zap.Error(err))
		health.Status = "unhealthy"
		health.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorDBQuery.WithData(health))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(health))
}
