package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowThreshold 慢查询阈值
const slowThreshold = 200 * time.Millisecond

// GormLogger routes gorm logs to zap
// GormLogger 将 gorm 日志输出到 zap
type GormLogger struct {
	lg    *zap.Logger
	level gormlogger.LogLevel
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger 创建 gorm 日志适配器，lg 为 nil 时不输出
func NewGormLogger(lg *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &GormLogger{lg: lg.Named("gorm").WithOptions(zap.AddCallerSkip(3)), level: level}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	n := *l
	n.level = level
	return &n
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.lg.Sugar().Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.lg.Sugar().Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.lg.Sugar().Errorf(msg, args...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	// 记录不存在与唯一约束冲突属于业务结果，不按错误记录
	case err != nil && l.level >= gormlogger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		sql, rows := fc()
		l.lg.Error("sql error", zap.Error(err), zap.Duration(logger.FieldDuration, elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case elapsed > slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.lg.Warn("slow sql", zap.Duration(logger.FieldDuration, elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.lg.Debug("sql", zap.Duration(logger.FieldDuration, elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}
