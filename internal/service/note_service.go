package service

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/internal/dto"
	"github.com/haierkeys/note-chain-service/pkg/code"
	"github.com/haierkeys/note-chain-service/pkg/convert"
	"github.com/haierkeys/note-chain-service/pkg/logger"
	"github.com/haierkeys/note-chain-service/pkg/writequeue"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// 操作名称，用于日志与指标
const (
	OpCreate         = "create"
	OpAppend         = "append"
	OpRestore        = "restore"
	OpDelete         = "delete"
	OpList           = "list"
	OpGetVersions    = "get_versions"
	OpGetVersion     = "get_version"
	OpCheckIntegrity = "check_integrity"
)

// WriteQueue serializes writes per note
// WriteQueue 按笔记串行化写操作
type WriteQueue interface {
	Execute(ctx context.Context, noteID int64, fn func() error) error
	Forget(noteID int64)
}

var _ WriteQueue = (*writequeue.Manager)(nil)

// NoteService defines the version chain business service interface
// NoteService 定义版本链业务服务接口
type NoteService interface {
	// CreateNote creates a note with version 1
	// CreateNote 创建笔记及其版本 1
	CreateNote(ctx context.Context, title, content string) (*dto.NoteVersionDTO, error)

	// AppendVersion appends version current+1 and makes it current
	// AppendVersion 追加版本 current+1 并设为当前版本
	AppendVersion(ctx context.Context, noteID int64, title, content string) (*dto.NoteVersionDTO, error)

	// RestoreVersion makes versionNumber current and prunes every newer version
	// RestoreVersion 将指定版本设为当前版本，并删除所有更新的版本
	RestoreVersion(ctx context.Context, noteID, versionNumber int64) (*dto.NoteVersionDTO, error)

	// DeleteNote deletes a note with all its versions
	// DeleteNote 删除笔记及其全部版本
	DeleteNote(ctx context.Context, noteID int64) error

	// ListNotes returns the current version of every note, newest first
	// ListNotes 返回所有笔记的当前版本，最新的在前
	ListNotes(ctx context.Context) ([]*dto.NoteVersionDTO, error)

	// GetVersions returns all versions of a note, highest number first
	// GetVersions 返回笔记的全部版本，版本号从大到小
	GetVersions(ctx context.Context, noteID int64) ([]*dto.NoteVersionDTO, error)

	// GetVersion returns one version of a note
	// GetVersion 返回笔记的指定版本
	GetVersion(ctx context.Context, noteID, versionNumber int64) (*dto.NoteVersionDTO, error)

	// CheckIntegrity audits every chain, read only
	// CheckIntegrity 只读检查所有版本链
	CheckIntegrity(ctx context.Context) ([]domain.IntegrityIssue, error)
}

// noteService implementation of NoteService interface
// noteService 实现 NoteService 接口
type noteService struct {
	repo    domain.NoteRepository // Note repository // 笔记仓库
	queue   WriteQueue            // Per-note write queue, may be nil // 按笔记写队列，可为 nil
	sf      *singleflight.Group   // Singleflight group // 并发请求合并组
	metrics *Metrics              // Metrics, may be nil // 指标，可为 nil
	logger  *zap.Logger           // Logger // 日志对象
	config  *ServiceConfig        // Service configuration // 服务配置
}

// NewNoteService creates NoteService instance
// NewNoteService 创建 NoteService 实例
func NewNoteService(repo domain.NoteRepository, queue WriteQueue, metrics *Metrics, lg *zap.Logger, config *ServiceConfig) NoteService {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &noteService{
		repo:    repo,
		queue:   queue,
		sf:      &singleflight.Group{},
		metrics: metrics,
		logger:  lg,
		config:  config,
	}
}

// domainToDTO converts domain model to DTO
// domainToDTO 将领域模型转换为 DTO
func (s *noteService) domainToDTO(v *domain.NoteVersion) *dto.NoteVersionDTO {
	if v == nil {
		return nil
	}
	return convert.StructAssignTime(v, &dto.NoteVersionDTO{}).(*dto.NoteVersionDTO)
}

func (s *noteService) domainListToDTO(list []*domain.NoteVersion) []*dto.NoteVersionDTO {
	out := make([]*dto.NoteVersionDTO, 0, len(list))
	for _, v := range list {
		out = append(out, s.domainToDTO(v))
	}
	return out
}

// onNote runs a write on the note's queue when serialization is enabled
// onNote 开启串行化时在笔记的写队列上执行写操作
func (s *noteService) onNote(ctx context.Context, noteID int64, fn func() error) error {
	if !s.config.SerializeNoteWrites || s.queue == nil {
		return fn()
	}
	return s.queue.Execute(ctx, noteID, fn)
}

// toCodeError maps repository and queue errors to response codes
// toCodeError 将仓储层与写队列错误映射为响应码
func toCodeError(err error, write bool) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNoteNotFound):
		return code.ErrorNoteNotFound
	case errors.Is(err, domain.ErrVersionNotFound):
		return code.ErrorVersionNotFound
	case errors.Is(err, domain.ErrVersionConflict):
		return code.ErrorVersionConflict.WithDetails(err.Error())
	case errors.Is(err, writequeue.ErrWriteQueueFull),
		errors.Is(err, writequeue.ErrWriteTimeout),
		errors.Is(err, writequeue.ErrWriteQueueClosed):
		return code.ErrorWriteQueueBusy.WithDetails(err.Error())
	case write:
		return code.ErrorDBWrite.WithDetails(err.Error())
	}
	return code.ErrorDBQuery.WithDetails(err.Error())
}

// finish 统一记录日志与指标
func (s *noteService) finish(ctx context.Context, op string, start time.Time, err error, fields ...zap.Field) {
	s.metrics.Observe(op, start, err)

	lg := logger.Ctx(ctx, s.logger)
	fields = append(fields, zap.String(logger.FieldOperation, op), zap.Duration(logger.FieldDuration, time.Since(start)))
	switch {
	case err == nil:
		lg.Debug("note chain operation", fields...)
	case code.IsNotFound(err):
		lg.Debug("note chain operation: not found", fields...)
	case code.IsConflict(err):
		lg.Warn("note chain operation: version conflict", append(fields, zap.Error(err))...)
	default:
		lg.Error("note chain operation failed", append(fields, zap.Error(err))...)
	}
}

// CreateNote creates a note with version 1
// CreateNote 创建笔记及其版本 1
func (s *noteService) CreateNote(ctx context.Context, title, content string) (*dto.NoteVersionDTO, error) {
	start := time.Now()

	v, err := s.repo.Create(ctx, title, content)
	err = toCodeError(err, true)

	var fields []zap.Field
	if v != nil {
		fields = append(fields, zap.Int64(logger.FieldNoteID, v.NoteID))
	}
	s.finish(ctx, OpCreate, start, err, fields...)
	if err != nil {
		return nil, err
	}
	return s.domainToDTO(v), nil
}

// AppendVersion appends version current+1
// AppendVersion 追加新版本
func (s *noteService) AppendVersion(ctx context.Context, noteID int64, title, content string) (*dto.NoteVersionDTO, error) {
	start := time.Now()

	var v *domain.NoteVersion
	err := s.onNote(ctx, noteID, func() error {
		var err error
		v, err = s.repo.Append(ctx, noteID, title, content)
		return err
	})
	err = toCodeError(err, true)

	fields := []zap.Field{zap.Int64(logger.FieldNoteID, noteID)}
	if v != nil {
		fields = append(fields, zap.Int64(logger.FieldVersionNumber, v.VersionNumber))
	}
	s.finish(ctx, OpAppend, start, err, fields...)
	if err != nil {
		return nil, err
	}
	return s.domainToDTO(v), nil
}

// RestoreVersion repoints then prunes, in one transaction
// RestoreVersion 在一个事务内先移动指针再删除更新的版本
func (s *noteService) RestoreVersion(ctx context.Context, noteID, versionNumber int64) (*dto.NoteVersionDTO, error) {
	start := time.Now()

	var (
		v      *domain.NoteVersion
		pruned int64
	)
	err := s.onNote(ctx, noteID, func() error {
		var err error
		v, pruned, err = s.repo.Restore(ctx, noteID, versionNumber)
		return err
	})
	err = toCodeError(err, true)

	s.finish(ctx, OpRestore, start, err,
		zap.Int64(logger.FieldNoteID, noteID),
		zap.Int64(logger.FieldVersionNumber, versionNumber),
		zap.Int64(logger.FieldPruned, pruned))
	if err != nil {
		return nil, err
	}
	return s.domainToDTO(v), nil
}

// DeleteNote deletes a note with all its versions
// DeleteNote 删除笔记及其全部版本
func (s *noteService) DeleteNote(ctx context.Context, noteID int64) error {
	start := time.Now()

	err := s.onNote(ctx, noteID, func() error {
		return s.repo.Delete(ctx, noteID)
	})
	if err == nil && s.queue != nil {
		s.queue.Forget(noteID)
	}
	err = toCodeError(err, true)

	s.finish(ctx, OpDelete, start, err, zap.Int64(logger.FieldNoteID, noteID))
	return err
}

// ListNotes returns the current version of every note
// ListNotes 返回所有笔记的当前版本
func (s *noteService) ListNotes(ctx context.Context) ([]*dto.NoteVersionDTO, error) {
	start := time.Now()

	var (
		list []*domain.NoteVersion
		err  error
	)
	if s.config.CoalesceListReads {
		// 并发的列表请求共享同一次快照读取
		var res interface{}
		res, err, _ = s.sf.Do(OpList, func() (interface{}, error) {
			// 共享的查询不随第一个调用方取消，改由读超时限制
			sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.readTimeout())
			defer cancel()
			return s.repo.ListCurrent(sharedCtx)
		})
		if err == nil {
			list = res.([]*domain.NoteVersion)
		}
	} else {
		list, err = s.repo.ListCurrent(ctx)
	}
	err = toCodeError(err, false)

	s.finish(ctx, OpList, start, err, zap.Int("count", len(list)))
	if err != nil {
		return nil, err
	}
	return s.domainListToDTO(list), nil
}

// GetVersions returns all versions of a note
// GetVersions 返回笔记的全部版本
func (s *noteService) GetVersions(ctx context.Context, noteID int64) ([]*dto.NoteVersionDTO, error) {
	start := time.Now()

	list, err := s.repo.ListVersions(ctx, noteID)
	err = toCodeError(err, false)

	s.finish(ctx, OpGetVersions, start, err, zap.Int64(logger.FieldNoteID, noteID))
	if err != nil {
		return nil, err
	}
	return s.domainListToDTO(list), nil
}

// GetVersion returns one version of a note
// GetVersion 返回笔记的指定版本
func (s *noteService) GetVersion(ctx context.Context, noteID, versionNumber int64) (*dto.NoteVersionDTO, error) {
	start := time.Now()

	v, err := s.repo.GetVersion(ctx, noteID, versionNumber)
	err = toCodeError(err, false)

	s.finish(ctx, OpGetVersion, start, err,
		zap.Int64(logger.FieldNoteID, noteID),
		zap.Int64(logger.FieldVersionNumber, versionNumber))
	if err != nil {
		return nil, err
	}
	return s.domainToDTO(v), nil
}
