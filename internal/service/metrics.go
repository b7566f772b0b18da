package service

import (
	"errors"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 版本链操作指标
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics 创建并注册指标，reg 为 nil 时返回 nil（不采集）
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "note_chain",
			Name:      "operations_total",
			Help:      "Version chain operations by operation and result.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "note_chain",
			Name:      "operation_duration_seconds",
			Help:      "Version chain operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.operations = register(reg, m.operations).(*prometheus.CounterVec)
	m.duration = register(reg, m.duration).(*prometheus.HistogramVec)
	return m
}

// register 注册采集器，已注册时复用已有采集器（配置热重载会重建 App）
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// Observe 记录一次操作
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, resultLabel(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case code.IsNotFound(err):
		return "not_found"
	case code.IsConflict(err):
		return "conflict"
	}
	return "error"
}
