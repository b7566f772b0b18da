package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/code"
	"github.com/haierkeys/note-chain-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTraceMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(TraceOptions{Enabled: true, Header: "X-Request-ID"}))
	var fromCtx, fromGin string
	r.GET("/", func(c *gin.Context) {
		fromCtx = logger.TraceIDFromContext(c.Request.Context())
		fromGin = GetTraceIDFromGin(c)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, fromCtx)
	assert.Equal(t, fromCtx, fromGin)
	assert.Equal(t, fromCtx, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	serve(r, req)
	assert.Equal(t, "abc", fromCtx)
}

func TestTraceMiddleware_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(TraceOptions{Enabled: false}))
	r.GET("/", func(c *gin.Context) {
		assert.Empty(t, GetTraceIDFromGin(c))
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get(DefaultTraceIDHeader))
}

func TestFaultError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		rate float64
		roll float64
		want int
	}{
		{"disabled", 0, 0, http.StatusOK},
		{"hit", 0.3, 0.1, http.StatusInternalServerError},
		{"miss", 0.3, 0.5, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", faultError(tt.rate, func() float64 { return tt.roll }), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestFaultDelay_HonorsContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", FaultDelay(time.Hour), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		serve(r, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fault delay ignored the request context")
	}
}

func TestContextTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ContextTimeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusGatewayTimeout, serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, code.ErrorServerInternal.StatusCode(), w.Code)
	assert.Contains(t, w.Body.String(), "boom")
}
