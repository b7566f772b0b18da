// Package tracer 初始化 opentracing 全局 tracer
package tracer

import (
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"go.uber.org/zap"
)

// NewJaegerTracer creates a jaeger tracer reporting to agentHostPort and installs it as the global tracer
// NewJaegerTracer 创建上报到 agentHostPort 的 jaeger tracer，并设为全局 tracer
// 全部采样；调用方负责在退出时关闭返回的 io.Closer
func NewJaegerTracer(serviceName, agentHostPort string, lg *zap.Logger) (opentracing.Tracer, io.Closer, error) {
	cfg := &jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:            false,
			BufferFlushInterval: time.Second,
			LocalAgentHostPort:  agentHostPort,
		},
	}

	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaegerzap.NewLogger(lg)))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create jaeger tracer")
	}
	opentracing.SetGlobalTracer(tracer)

	return tracer, closer, nil
}
