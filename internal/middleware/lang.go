package middleware

import (
	"strings"

	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// 语言优先级：query lang -> header lang -> defaultLang
func LangWithTranslator(uni *ut.UniversalTranslator, defaultLang string) gin.HandlerFunc {

	return func(c *gin.Context) {

		lang := defaultLang

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		}

		lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))

		// 翻译器以 "zh"、"en" 注册
		transKey := lang
		if strings.HasPrefix(transKey, "zh") {
			transKey = "zh"
		}

		trans, found := uni.GetTranslator(transKey)

		if found {
			c.Set("trans", trans)
		} else {
			trans, _ := uni.GetTranslator("en")
			c.Set("trans", trans)
		}

		_ = code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}
