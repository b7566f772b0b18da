// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// defaultReadTimeout 合并读取的默认超时
const defaultReadTimeout = 60 * time.Second

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	// SerializeNoteWrites runs writes on the same note through the per-note write queue
	// SerializeNoteWrites 同一笔记的写操作通过按笔记的写队列串行执行
	SerializeNoteWrites bool
	// CoalesceListReads merges concurrent ListNotes calls into one query
	// CoalesceListReads 合并并发的 ListNotes 调用为一次查询
	CoalesceListReads bool
	// ReadTimeout bounds a coalesced read, which no longer follows any single caller's context
	// ReadTimeout 合并读取的超时时间，合并后的查询不再跟随单个调用方的 context
	ReadTimeout time.Duration
}

// DefaultServiceConfig 默认服务配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		SerializeNoteWrites: true,
		CoalesceListReads:   true,
		ReadTimeout:         defaultReadTimeout,
	}
}

func (c *ServiceConfig) readTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return defaultReadTimeout
	}
	return c.ReadTimeout
}
