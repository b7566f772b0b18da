package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/internal/dto"
	"github.com/haierkeys/note-chain-service/pkg/code"
	"github.com/haierkeys/note-chain-service/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(list []*dto.NoteVersionDTO) []int64 {
	out := make([]int64, 0, len(list))
	for _, v := range list {
		out = append(out, v.VersionNumber)
	}
	return out
}

// 创建 -> 追加两次 -> 恢复到 1，只剩版本 1
func TestNoteService_RestoreScenario(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()
	ctx := context.Background()

	v1, err := svc.CreateNote(ctx, "Test Note", "This is a test note")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.VersionNumber)

	v2, err := svc.AppendVersion(ctx, v1.NoteID, "Updated Note", "This is an updated note")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.VersionNumber)
	_, err = svc.AppendVersion(ctx, v1.NoteID, "Third", "third")
	require.NoError(t, err)

	restored, err := svc.RestoreVersion(ctx, v1.NoteID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), restored.VersionNumber)
	assert.Equal(t, "Test Note", restored.Title)

	versions, err := svc.GetVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, numbers(versions))

	list, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v1.ID, list[0].ID)

	// 恢复后追加得到 k+1，旧的更大版本不会复活
	next, err := svc.AppendVersion(ctx, v1.NoteID, "again", "again")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.VersionNumber)
	assert.NotEqual(t, v2.ID, next.ID)
	assert.Equal(t, "again", next.Title)
}

func TestNoteService_RestoreMissingVersion(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()
	ctx := context.Background()

	v1, err := svc.CreateNote(ctx, "t", "c")
	require.NoError(t, err)
	_, err = svc.AppendVersion(ctx, v1.NoteID, "t2", "c2")
	require.NoError(t, err)

	_, err = svc.RestoreVersion(ctx, v1.NoteID, 999)
	assert.True(t, code.IsNotFound(err))
	assert.ErrorIs(t, err, code.ErrorVersionNotFound)

	// 没有发生部分裁剪
	versions, err := svc.GetVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, numbers(versions))
}

func TestNoteService_DeleteThenRead(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()
	ctx := context.Background()

	v1, err := svc.CreateNote(ctx, "t", "c")
	require.NoError(t, err)
	_, err = svc.AppendVersion(ctx, v1.NoteID, "t2", "c2")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, v1.NoteID))

	_, err = svc.GetVersions(ctx, v1.NoteID)
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
	_, err = svc.GetVersion(ctx, v1.NoteID, 1)
	assert.ErrorIs(t, err, code.ErrorVersionNotFound)
	_, err = svc.AppendVersion(ctx, v1.NoteID, "t3", "c3")
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
	_, err = svc.RestoreVersion(ctx, v1.NoteID, 1)
	assert.ErrorIs(t, err, code.ErrorVersionNotFound)

	list, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoteService_DeleteUnknown(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()

	err := svc.DeleteNote(context.Background(), 999)
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
}

func TestNoteService_GetVersion(t *testing.T) {
	svc, closeFn := openService(t, false)
	defer closeFn()
	ctx := context.Background()

	v1, err := svc.CreateNote(ctx, "first", "c1")
	require.NoError(t, err)
	_, err = svc.AppendVersion(ctx, v1.NoteID, "second", "c2")
	require.NoError(t, err)

	got, err := svc.GetVersion(ctx, v1.NoteID, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, v1.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	_, err = svc.GetVersion(ctx, v1.NoteID, 3)
	assert.ErrorIs(t, err, code.ErrorVersionNotFound)
}

func TestNoteService_ListNotesOrder(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()
	ctx := context.Background()

	a, err := svc.CreateNote(ctx, "a", "a")
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, "b", "b")
	require.NoError(t, err)

	list, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.NoteID, list[0].NoteID)

	// 追加后 a 成为最近修改的笔记
	_, err = svc.AppendVersion(ctx, a.NoteID, "a2", "a2")
	require.NoError(t, err)
	list, err = svc.ListNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.NoteID, list[0].NoteID)
	assert.Equal(t, int64(2), list[0].VersionNumber)
}

func TestNoteService_CheckIntegrityClean(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()
	ctx := context.Background()

	v1, err := svc.CreateNote(ctx, "a", "a")
	require.NoError(t, err)
	_, err = svc.AppendVersion(ctx, v1.NoteID, "a2", "a2")
	require.NoError(t, err)

	issues, err := svc.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestToCodeError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		write bool
		want  *code.Code
	}{
		{"note not found", domain.ErrNoteNotFound, true, code.ErrorNoteNotFound},
		{"version not found", domain.ErrVersionNotFound, false, code.ErrorVersionNotFound},
		{"conflict", domain.ErrVersionConflict, true, code.ErrorVersionConflict},
		{"queue full", writequeue.ErrWriteQueueFull, true, code.ErrorWriteQueueBusy},
		{"queue timeout", writequeue.ErrWriteTimeout, true, code.ErrorWriteQueueBusy},
		{"write failure", errors.New("disk full"), true, code.ErrorDBWrite},
		{"read failure", errors.New("connection reset"), false, code.ErrorDBQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toCodeError(tt.err, tt.write)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.NoError(t, toCodeError(nil, true))
	assert.True(t, code.IsStorageFailure(toCodeError(errors.New("x"), true)))
	assert.True(t, code.IsConflict(toCodeError(domain.ErrVersionConflict, true)))
}

// mockNoteRepo 返回固定错误的仓储，用于验证错误透传
type mockNoteRepo struct {
	domain.NoteRepository
	err   error
	calls int
}

func (m *mockNoteRepo) Append(ctx context.Context, noteID int64, title, content string) (*domain.NoteVersion, error) {
	m.calls++
	return nil, m.err
}

func TestNoteService_StorageFailureIsNotRetried(t *testing.T) {
	repo := &mockNoteRepo{err: errors.New("database is locked")}
	svc := NewNoteService(repo, nil, nil, nil, &ServiceConfig{SerializeNoteWrites: true})

	_, err := svc.AppendVersion(context.Background(), 1, "t", "c")
	assert.ErrorIs(t, err, code.ErrorDBWrite)
	assert.Equal(t, 1, repo.calls)
}

// 写队列超时返回错误时，追加不会在之后悄悄提交
func TestNoteService_TimedOutAppendLeavesChainUnchanged(t *testing.T) {
	svc, queue, closeFn := openServiceWithQueue(t, true, &writequeue.Config{WriteTimeout: 50 * time.Millisecond})
	defer closeFn()
	ctx := context.Background()

	v1, err := svc.CreateNote(ctx, "t1", "c1")
	require.NoError(t, err)

	// 占住该笔记的写队列
	started := make(chan struct{})
	go func() {
		_ = queue.Execute(ctx, v1.NoteID, func() error {
			close(started)
			time.Sleep(200 * time.Millisecond)
			return nil
		})
	}()
	<-started

	_, err = svc.AppendVersion(ctx, v1.NoteID, "t2", "c2")
	assert.ErrorIs(t, err, code.ErrorWriteQueueBusy)

	time.Sleep(400 * time.Millisecond)
	versions, err := svc.GetVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, numbers(versions))

	// 队列空闲后追加照常得到版本 2
	v2, err := svc.AppendVersion(ctx, v1.NoteID, "t2", "c2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.VersionNumber)
}

// 合并的列表查询不受发起方取消的影响
func TestNoteService_CoalescedListIgnoresCallerCancel(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()

	_, err := svc.CreateNote(context.Background(), "t1", "c1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
