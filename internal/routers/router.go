package routers

import (
	"time"

	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/middleware"
	"github.com/haierkeys/note-chain-service/internal/routers/api_router"
	"github.com/haierkeys/note-chain-service/pkg/limiter"
	"github.com/haierkeys/note-chain-service/pkg/util"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// newMethodLimiter 根据配置创建按路由前缀的令牌桶限流器
func newMethodLimiter(cfg app.LimiterConfig) limiter.Face {
	rules := make([]limiter.BucketRule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rules = append(rules, limiter.BucketRule{
			Key:          r.Key,
			FillInterval: util.MustParseDuration(r.FillInterval, time.Second),
			Capacity:     r.Capacity,
			Quantum:      r.Quantum,
		})
	}
	return limiter.NewMethodLimiter().AddBuckets(rules...)
}

// NewRouter 创建 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()
	r.Use(middleware.Cors(cfg.Cors.AllowOrigins, cfg.Cors.MaxAge))

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddleware(middleware.TraceOptions{Enabled: cfg.Tracer.Enabled, Header: cfg.Tracer.Header})) // Trace ID 中间件
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
		if cfg.Limiter.Enabled {
			api.Use(middleware.RateLimiter(newMethodLimiter(cfg.Limiter)))
		}
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.LangWithTranslator(uni, cfg.App.DefaultLang))

		// 创建 Handlers（注入 App Container）
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		noteHandler := api_router.NewNoteHandler(appContainer)
		noteVersionHandler := api_router.NewNoteVersionHandler(appContainer)

		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)

		// 笔记接口，故障注入只作用于这一组
		notes := api.Group("/notes", middleware.FaultDelay(cfg.GetFaultDelay()))
		{
			notes.GET("", middleware.FaultError(cfg.Fault.ListErrorRate), noteHandler.List)
			notes.POST("", noteHandler.Create)
			notes.DELETE("/:noteId", noteHandler.Delete)
			notes.POST("/:noteId/restore/:versionNumber", noteHandler.Restore)

			notes.GET("/:noteId/versions", noteVersionHandler.List)
			notes.POST("/:noteId/versions", noteVersionHandler.Append)
			notes.GET("/:noteId/versions/:versionNumber", noteVersionHandler.Get)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}
