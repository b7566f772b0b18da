// Package writequeue serializes write operations per note
// Package writequeue 按笔记串行化写操作
// Writes that touch the same version chain run one after another in FIFO order,
// writes on different notes run in parallel
// 同一版本链上的写操作按 FIFO 顺序依次执行，不同笔记之间的写操作并行执行
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Error definitions
// 错误定义
var (
	// ErrWriteQueueFull returned when the note write queue is full
	// ErrWriteQueueFull 当笔记写队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned when the manager is closed
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when a write operation times out
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-note queue capacity, default 100
	// QueueCapacity 每个笔记的队列容量，默认 100
	QueueCapacity int
	// WriteTimeout write operation timeout, default 30 seconds
	// WriteTimeout 写操作超时时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout idle cleanup timeout, default 10 minutes
	// IdleTimeout 空闲清理超时时间，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// writeOp states, an op runs only if it moves from pending to running
// writeOp 状态，只有从 pending 切换到 running 的操作才会执行
const (
	opPending int32 = iota
	opRunning
	opAbandoned
)

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
	state  atomic.Int32
}

// abandon marks a pending op as never to run; returns false once the worker has taken it
// abandon 将等待中的操作标记为放弃，worker 已开始执行时返回 false
func (op *writeOp) abandon() bool {
	return op.state.CompareAndSwap(opPending, opAbandoned)
}

// noteWriteQueue write queue of a single version chain
// noteWriteQueue 单个版本链的写队列
type noteWriteQueue struct {
	noteID   int64
	ch       chan *writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	workerWg sync.WaitGroup
	stopCh   chan struct{}
}

// Manager manages write queues of all notes
// Manager 管理所有笔记的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[int64]*noteWriteQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}

	executed atomic.Int64
	rejected atomic.Int64
}

// New creates write queue manager
// New 创建写队列管理器
// cfg: configuration, if nil use default configuration
// cfg: 配置，如果为 nil 则使用默认配置
// logger: zap logger, if nil use nop logger
// logger: zap 日志器，如果为 nil 则使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:      c,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute runs fn on the queue of noteID and waits for its result
// Execute 在 noteID 对应的队列上执行 fn 并等待结果
// Operations on the same note never overlap. When Execute returns an error other than
// the one returned by fn, fn has not run and never will
// 同一笔记上的操作不会重叠执行；Execute 返回的错误不是 fn 的结果时，fn 没有也不会再执行
func (m *Manager) Execute(ctx context.Context, noteID int64, fn func() error) error {
	if m.IsClosed() {
		return ErrWriteQueueClosed
	}

	op := &writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}
	for {
		queue := m.getOrCreateQueue(noteID)
		if queue == nil {
			return ErrWriteQueueClosed
		}

		queued, err := m.submit(queue, op)
		if err != nil {
			return err
		}
		if queued {
			break
		}
		// 队列在入队前后被停止（Forget 或空闲清理），换一个新队列重试
		op = &writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}
	}

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return m.giveUp(op, ctx.Err())
	case <-timer.C:
		return m.giveUp(op, ErrWriteTimeout)
	case <-m.ctx.Done():
		return m.giveUp(op, ErrWriteQueueClosed)
	}
}

// submit sends op to queue; queued is false when the queue was stopped and op was withdrawn
// submit 将操作放入队列；队列已停止且操作已撤回时 queued 为 false
func (m *Manager) submit(queue *noteWriteQueue, op *writeOp) (queued bool, err error) {
	select {
	case queue.ch <- op:
	default:
		m.rejected.Add(1)
		return false, ErrWriteQueueFull
	}

	// 停止的队列可能已排空完毕，留在其中的操作不会再被执行
	if queue.closed.Load() && op.abandon() {
		return false, nil
	}
	return true, nil
}

// giveUp abandons a pending op and returns cause; an op already running is waited for
// giveUp 放弃等待中的操作并返回 cause；已在执行的操作等待其真实结果
func (m *Manager) giveUp(op *writeOp, cause error) error {
	if op.abandon() {
		return cause
	}
	return <-op.result
}

// getOrCreateQueue gets or lazily creates the queue of a note
// getOrCreateQueue 获取或懒加载创建笔记的写队列
func (m *Manager) getOrCreateQueue(noteID int64) *noteWriteQueue {
	if v, ok := m.queues.Load(noteID); ok {
		queue := v.(*noteWriteQueue)
		if !queue.closed.Load() {
			queue.lastUsed.Store(time.Now().UnixNano())
			return queue
		}
	}

	if m.IsClosed() {
		return nil
	}

	queue := &noteWriteQueue{
		noteID: noteID,
		ch:     make(chan *writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	queue.lastUsed.Store(time.Now().UnixNano())

	// LoadOrStore 确保同一笔记只有一个队列
	actual, loaded := m.queues.LoadOrStore(noteID, queue)
	if loaded {
		existing := actual.(*noteWriteQueue)
		if !existing.closed.Load() {
			existing.lastUsed.Store(time.Now().UnixNano())
			return existing
		}
		// 已存在的队列已关闭，替换为新队列
		m.queues.Store(noteID, queue)
	}

	queue.workerWg.Add(1)
	go m.worker(queue)

	m.logger.Debug("created write queue for note",
		zap.Int64("noteId", noteID),
		zap.Int("capacity", m.config.QueueCapacity))

	return queue
}

func (m *Manager) worker(queue *noteWriteQueue) {
	defer queue.workerWg.Done()
	defer func() {
		queue.closed.Store(true)
		m.logger.Debug("write queue worker stopped", zap.Int64("noteId", queue.noteID))
	}()

	for {
		select {
		case <-m.ctx.Done():
			m.drainQueue(queue)
			return
		case <-queue.stopCh:
			m.drainQueue(queue)
			return
		case op := <-queue.ch:
			m.executeOp(queue, op)
		}
	}
}

func (m *Manager) executeOp(queue *noteWriteQueue, op *writeOp) {
	queue.lastUsed.Store(time.Now().UnixNano())

	// 调用方已放弃的操作不再执行
	if !op.state.CompareAndSwap(opPending, opRunning) {
		return
	}
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}

	err := op.fn()
	m.executed.Add(1)
	op.result <- err
}

// drainQueue drains remaining operations in queue
// drainQueue 排空队列中的剩余操作
func (m *Manager) drainQueue(queue *noteWriteQueue) {
	for {
		select {
		case op := <-queue.ch:
			m.executeOp(queue, op)
		default:
			return
		}
	}
}

func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

// doCleanup stops queues idle longer than IdleTimeout
// doCleanup 停止空闲超过 IdleTimeout 的队列
func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idleThreshold := m.config.IdleTimeout.Nanoseconds()

	m.queues.Range(func(key, value interface{}) bool {
		noteID := key.(int64)
		queue := value.(*noteWriteQueue)

		lastUsed := queue.lastUsed.Load()
		if now-lastUsed > idleThreshold && len(queue.ch) == 0 && queue.closed.CompareAndSwap(false, true) {
			m.logger.Debug("cleaning up idle write queue",
				zap.Int64("noteId", noteID),
				zap.Duration("idleTime", time.Duration(now-lastUsed)))
			close(queue.stopCh)
			m.queues.CompareAndDelete(noteID, queue)
		}
		return true
	})
}

// Forget drops the queue of a deleted note
// Forget 删除已删除笔记的写队列
func (m *Manager) Forget(noteID int64) {
	v, ok := m.queues.Load(noteID)
	if !ok {
		return
	}
	queue := v.(*noteWriteQueue)
	if len(queue.ch) > 0 {
		return
	}
	if queue.closed.CompareAndSwap(false, true) {
		close(queue.stopCh)
	}
	m.queues.CompareAndDelete(noteID, queue)
}

// Shutdown closes the manager and waits for queued operations to finish
// Shutdown 关闭写队列管理器，等待所有排队操作完成
// ctx 用于控制关闭超时
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")
	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		m.queues.Range(func(key, value interface{}) bool {
			queue := value.(*noteWriteQueue)
			if queue.closed.CompareAndSwap(false, true) {
				close(queue.stopCh)
			}
			return true
		})
		m.queues.Range(func(key, value interface{}) bool {
			value.(*noteWriteQueue).workerWg.Wait()
			return true
		})
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		m.cancel()
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout, forcing cancellation")
		m.cancel()
		return ctx.Err()
	}
}

// QueueCount returns current active queue count
// QueueCount 返回当前活跃队列数量
func (m *Manager) QueueCount() int {
	count := 0
	m.queues.Range(func(key, value interface{}) bool {
		if !value.(*noteWriteQueue).closed.Load() {
			count++
		}
		return true
	})
	return count
}

// QueuedCount returns number of operations waiting on a note
// QueuedCount 返回指定笔记队列中等待的操作数
func (m *Manager) QueuedCount(noteID int64) int {
	if v, ok := m.queues.Load(noteID); ok {
		return len(v.(*noteWriteQueue).ch)
	}
	return 0
}

// IsClosed returns if manager is closed
// IsClosed 返回管理器是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Metrics write queue manager metrics
// Metrics 写队列管理器指标
type Metrics struct {
	QueueCapacity int   `json:"queueCapacity"`
	ActiveQueues  int   `json:"activeQueues"`
	Executed      int64 `json:"executed"`
	Rejected      int64 `json:"rejected"`
	IsClosed      bool  `json:"isClosed"`
}

// GetMetrics gets current metrics
// GetMetrics 获取当前指标
func (m *Manager) GetMetrics() Metrics {
	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  m.QueueCount(),
		Executed:      m.executed.Load(),
		Rejected:      m.rejected.Load(),
		IsClosed:      m.IsClosed(),
	}
}
