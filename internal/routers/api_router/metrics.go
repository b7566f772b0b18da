package api_router

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/dto"
	pkgapp "github.com/haierkeys/note-chain-service/pkg/app"
	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
)

var (
	publishOnce sync.Once
	currentApp  atomic.Pointer[app.App]
)

// PublishWriteQueueMetrics 在 expvar 中发布写队列指标
// expvar 名称只能注册一次，配置重载后指向新的 App
func PublishWriteQueueMetrics(a *app.App) {
	currentApp.Store(a)
	publishOnce.Do(func() {
		expvar.Publish("write_queue", expvar.Func(func() any {
			if a := currentApp.Load(); a != nil && a.WriteQueueManager() != nil {
				return a.WriteQueueManager().GetMetrics()
			}
			return nil
		}))
	})
}

// Expvar 导出系统运行时指标
// 函数名: Expvar
// 函数使用说明: 处理获取系统运行时指标 (expvar) 的 HTTP 请求。将 expvar 导出的 JSON 数据写入响应。
// 参数说明:
//   - c *gin.Context: Gin 上下文
//
// 返回值说明:
//   - JSON: 包含系统指标的 JSON 数据
func Expvar(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	first := true
	report := func(key string, value interface{}) {
		if !first {
			fmt.Fprintf(c.Writer, ",\n")
		}
		first = false
		if str, ok := value.(string); ok {
			fmt.Fprintf(c.Writer, "%q: %q", key, str)
		} else {
			fmt.Fprintf(c.Writer, "%q: %v", key, value)
		}
	}

	fmt.Fprintf(c.Writer, "{\n")
	expvar.Do(func(kv expvar.KeyValue) {
		report(kv.Key, kv.Value)
	})
	fmt.Fprintf(c.Writer, "\n}\n")
}

// IntegrityHandler 版本链完整性检查处理器，仅挂载在私有监听上
type IntegrityHandler struct {
	*Handler
}

// NewIntegrityHandler 创建 IntegrityHandler 实例
func NewIntegrityHandler(a *app.App) *IntegrityHandler {
	return &IntegrityHandler{Handler: NewHandler(a)}
}

// Check 执行一次只读完整性检查
func (h *IntegrityHandler) Check(c *gin.Context) {
	issues, err := h.App.NoteService.CheckIntegrity(c.Request.Context())
	if err != nil {
		h.respondError(c, "IntegrityHandler.Check", err)
		return
	}

	list := make([]dto.IntegrityIssueDTO, 0, len(issues))
	for _, issue := range issues {
		list = append(list, dto.IntegrityIssueDTO{
			NoteID: issue.NoteID,
			Kind:   string(issue.Kind),
			Detail: issue.Detail,
		})
	}
	pkgapp.NewResponse(c).ToResponseList(code.Success, list)
}
