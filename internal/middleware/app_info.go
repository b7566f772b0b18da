package middleware

import (
	"github.com/haierkeys/note-chain-service/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfo 在上下文中写入应用名称和版本
func AppInfo(name, version string) gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))

		c.Next()
	}
}
