package task

import (
	"context"
	"strings"

	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/service"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// IntegrityCheckTask 定期只读检查所有版本链，发现的问题只记录日志
type IntegrityCheckTask struct {
	svc        service.NoteService
	logger     *zap.Logger
	schedule   cron.Schedule
	startupRun bool
}

// Name 返回任务名称
func (t *IntegrityCheckTask) Name() string {
	return "IntegrityCheck"
}

// Schedule 返回执行计划
func (t *IntegrityCheckTask) Schedule() cron.Schedule {
	return t.schedule
}

// IsStartupRun 是否立即执行一次
func (t *IntegrityCheckTask) IsStartupRun() bool {
	return t.startupRun
}

// Run 执行完整性检查
func (t *IntegrityCheckTask) Run(ctx context.Context) error {
	issues, err := t.svc.CheckIntegrity(ctx)
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		t.logger.Info("task log",
			zap.String("task", t.Name()),
			zap.String("msg", "all version chains consistent"))
		return nil
	}

	t.logger.Warn("task log",
		zap.String("task", t.Name()),
		zap.String("msg", "version chain issues found"),
		zap.Int("issues", len(issues)))
	return nil
}

// ParseSchedule 解析完整性检查的 cron 表达式，空或 "off" 表示关闭
// 支持标准 5 段表达式与 @every、@daily 等描述符
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "off") {
		return nil, nil
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse integrity-check-cron %q", expr)
	}
	return schedule, nil
}

// NewIntegrityCheckTask 创建完整性检查任务，计划关闭且不在启动时执行时返回 nil
func NewIntegrityCheckTask(svc service.NoteService, logger *zap.Logger, expr string, startupRun bool) (Task, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if schedule == nil && !startupRun {
		logger.Info("integrity check task is disabled")
		return nil, nil
	}
	return &IntegrityCheckTask{
		svc:        svc,
		logger:     logger,
		schedule:   schedule,
		startupRun: startupRun,
	}, nil
}

// init 自动注册完整性检查任务
func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		cfg := appContainer.Config()
		return NewIntegrityCheckTask(appContainer.NoteService, appContainer.Logger(), cfg.App.IntegrityCheckCron, cfg.App.IntegrityCheckOnStartup)
	})
}
