package dao

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/internal/model"
	"github.com/haierkeys/note-chain-service/pkg/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func versionNumbers(list []*domain.NoteVersion) []int64 {
	nums := make([]int64, 0, len(list))
	for _, v := range list {
		nums = append(nums, v.VersionNumber)
	}
	return nums
}

func TestNoteRepository_CreateAndAppend(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "Test Note", "body")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1.VersionNumber)
	assert.Equal(t, "Test Note", v1.Title)
	assert.False(t, v1.CreatedAt.IsZero())

	note, err := repo.Get(ctx, v1.NoteID)
	require.NoError(t, err)
	require.NotNil(t, note.CurrentVersionID)
	assert.Equal(t, v1.ID, *note.CurrentVersionID)

	v2, err := repo.Append(ctx, v1.NoteID, "second", "b2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.VersionNumber)

	v3, err := repo.Append(ctx, v1.NoteID, "third", "b3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v3.VersionNumber)

	list, err := repo.ListVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, versionNumbers(list))

	got, err := repo.GetVersion(ctx, v1.NoteID, 2)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
}

func TestNoteRepository_AppendMissingNote(t *testing.T) {
	repo := NewNoteRepository(newTestDao(t), true)

	_, err := repo.Append(context.Background(), 42, "t", "c")
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)
}

func TestNoteRepository_Restore(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, v1.NoteID, "vn", "cn")
		require.NoError(t, err)
	}

	restored, pruned, err := repo.Restore(ctx, v1.NoteID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), restored.VersionNumber)
	assert.Equal(t, int64(2), pruned)

	list, err := repo.ListVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, versionNumbers(list))

	note, err := repo.Get(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, restored.ID, *note.CurrentVersionID)

	// 恢复后追加得到 k+1
	next, err := repo.Append(ctx, v1.NoteID, "again", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.VersionNumber)

	// 恢复到当前版本不删除任何版本
	_, pruned, err = repo.Restore(ctx, v1.NoteID, 3)
	require.NoError(t, err)
	assert.Zero(t, pruned)
}

func TestNoteRepository_RestoreMissingVersionKeepsChain(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, v1.NoteID, "v2", "c2")
	require.NoError(t, err)

	_, _, err = repo.Restore(ctx, v1.NoteID, 999)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)

	_, _, err = repo.Restore(ctx, 12345, 1)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)

	list, err := repo.ListVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, versionNumbers(list))
}

// 裁剪失败时回滚整个恢复事务，当前指针与版本链保持不变
func TestNoteRepository_RestorePruneFailureRollsBack(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, v1.NoteID, "v2", "c2")
	require.NoError(t, err)
	v3, err := repo.Append(ctx, v1.NoteID, "v3", "c3")
	require.NoError(t, err)

	injected := errors.New("injected delete failure")
	err = d.Db.Callback().Delete().Before("gorm:delete").Register("test:fail_version_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == model.TableNameNoteVersion {
			_ = tx.AddError(injected)
		}
	})
	require.NoError(t, err)

	_, _, err = repo.Restore(ctx, v1.NoteID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, injected)

	require.NoError(t, d.Db.Callback().Delete().Remove("test:fail_version_delete"))

	note, err := repo.Get(ctx, v1.NoteID)
	require.NoError(t, err)
	require.NotNil(t, note.CurrentVersionID)
	assert.Equal(t, v3.ID, *note.CurrentVersionID)

	list, err := repo.ListVersions(ctx, v1.NoteID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, versionNumbers(list))
}

func TestNoteRepository_Delete(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, v1.NoteID, "v2", "c2")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, v1.NoteID))

	_, err = repo.ListVersions(ctx, v1.NoteID)
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)
	_, err = repo.GetVersion(ctx, v1.NoteID, 1)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
	_, err = repo.Get(ctx, v1.NoteID)
	assert.ErrorIs(t, err, domain.ErrNoteNotFound)

	var count int64
	require.NoError(t, d.Db.Model(&model.NoteVersion{}).Where("note_id = ?", v1.NoteID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.Delete(ctx, v1.NoteID), domain.ErrNoteNotFound)
}

func TestNoteRepository_ForeignKeyCascade(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, v1.NoteID, "v2", "c2")
	require.NoError(t, err)

	// 直接删除笔记行，版本由外键级联删除
	require.NoError(t, d.Db.Exec("DELETE FROM notes WHERE id = ?", v1.NoteID).Error)

	var count int64
	require.NoError(t, d.Db.Model(&model.NoteVersion{}).Where("note_id = ?", v1.NoteID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNoteRepository_UniqueIndexSurfacesConflict(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true).(*noteRepository)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)

	dup := &model.NoteVersion{NoteID: v1.NoteID, VersionNumber: 1, Title: "dup", Content: "dup", CreatedAt: timex.Now()}
	err = repo.insertVersion(d.Db, dup)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestNoteRepository_ListCurrent(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	a, err := repo.Create(ctx, "a", "a")
	require.NoError(t, err)
	b, err := repo.Create(ctx, "b", "b")
	require.NoError(t, err)
	a2, err := repo.Append(ctx, a.NoteID, "a2", "a2")
	require.NoError(t, err)

	list, err := repo.ListCurrent(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// a2 最新写入，排在最前
	assert.Equal(t, a2.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	// 恢复后列表显示恢复到的版本
	_, _, err = repo.Restore(ctx, a.NoteID, 1)
	require.NoError(t, err)
	list, err = repo.ListCurrent(ctx)
	require.NoError(t, err)
	ids := []int64{list[0].ID, list[1].ID}
	assert.Contains(t, ids, a.ID)
	assert.NotContains(t, ids, a2.ID)
}

func TestNoteRepository_ListCurrentEmpty(t *testing.T) {
	repo := NewNoteRepository(newTestDao(t), true)

	list, err := repo.ListCurrent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoteRepository_CheckIntegrity(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d, true)
	ctx := context.Background()

	v1, err := repo.Create(ctx, "v1", "c1")
	require.NoError(t, err)
	_, err = repo.Append(ctx, v1.NoteID, "v2", "c2")
	require.NoError(t, err)

	issues, err := repo.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	// 人为把指针指回版本 1，使当前版本不再是最大版本
	require.NoError(t, d.Db.Model(&model.Note{}).Where("id = ?", v1.NoteID).Update("current_version_id", v1.ID).Error)

	issues, err = repo.CheckIntegrity(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssuePointerNotMax, issues[0].Kind)
}
