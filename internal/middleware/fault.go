package middleware

import (
	"math/rand/v2"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/app"
	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// FaultDelay 人为延迟，用于演示前端的加载状态；delay <= 0 时不生效
// 请求上下文先结束时立即返回
func FaultDelay(delay time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-c.Request.Context().Done():
				timer.Stop()
			}
		}
		c.Next()
	}
}

// FaultError 以 rate 的概率返回注入的服务器错误；rate <= 0 时不生效
func FaultError(rate float64) gin.HandlerFunc {
	return faultError(rate, rand.Float64)
}

func faultError(rate float64, roll func() float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rate > 0 && roll() < rate {
			app.NewResponse(c).ToResponse(code.ErrorInjectedFault)
			c.Abort()
			return
		}
		c.Next()
	}
}
