package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/internal/service"
	"github.com/haierkeys/note-chain-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNoteService struct {
	service.NoteService
	calls  atomic.Int32
	issues []domain.IntegrityIssue
	err    error
}

func (f *fakeNoteService) CheckIntegrity(ctx context.Context) ([]domain.IntegrityIssue, error) {
	f.calls.Add(1)
	return f.issues, f.err
}

type everySchedule time.Duration

func (e everySchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

func TestParseSchedule(t *testing.T) {
	for _, expr := range []string{"", "off", " OFF "} {
		s, err := ParseSchedule(expr)
		assert.NoError(t, err)
		assert.Nil(t, s, expr)
	}

	s, err := ParseSchedule("@every 6h")
	require.NoError(t, err)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(6*time.Hour), s.Next(start))

	s, err = ParseSchedule("30 2 * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 30, 0, 0, time.UTC), s.Next(start))

	_, err = ParseSchedule("not a cron")
	assert.Error(t, err)
}

func TestNewIntegrityCheckTask(t *testing.T) {
	svc := &fakeNoteService{}

	task, err := NewIntegrityCheckTask(svc, zap.NewNop(), "off", false)
	require.NoError(t, err)
	assert.Nil(t, task)

	task, err = NewIntegrityCheckTask(svc, zap.NewNop(), "off", true)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Nil(t, task.Schedule())
	assert.True(t, task.IsStartupRun())

	_, err = NewIntegrityCheckTask(svc, zap.NewNop(), "bad expr", false)
	assert.Error(t, err)
}

func TestIntegrityCheckTask_Run(t *testing.T) {
	svc := &fakeNoteService{issues: []domain.IntegrityIssue{{NoteID: 1, Kind: domain.IssueGap}}}
	task, err := NewIntegrityCheckTask(svc, zap.NewNop(), "@daily", false)
	require.NoError(t, err)

	// 发现问题不算任务失败
	assert.NoError(t, task.Run(context.Background()))

	svc.err = errors.New("db down")
	assert.Error(t, task.Run(context.Background()))
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestScheduler_RunsAndStops(t *testing.T) {
	svc := &fakeNoteService{}
	task := &IntegrityCheckTask{
		svc:        svc,
		logger:     zap.NewNop(),
		schedule:   everySchedule(5 * time.Millisecond),
		startupRun: true,
	}

	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	s.AddTask(task)
	s.Start()

	require.Eventually(t, func() bool { return svc.calls.Load() >= 3 }, 5*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	done := make(chan error, 1)
	go func() { done <- sc.WaitClosed() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StartupOnly(t *testing.T) {
	svc := &fakeNoteService{}
	task, err := NewIntegrityCheckTask(svc, zap.NewNop(), "off", true)
	require.NoError(t, err)

	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	s.AddTask(task)
	s.Start()

	// 只执行一次，挂载函数随即结束
	require.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(1), svc.calls.Load())
}

var _ cron.Schedule = everySchedule(0)
