// Package domain 定义领域模型和接口
package domain

import "context"

// NoteRepository 版本链仓储接口
// 每个方法在一个数据库事务或一条语句内完成
type NoteRepository interface {
	// Create 创建笔记及其版本 1，并将当前指针指向版本 1
	Create(ctx context.Context, title, content string) (*NoteVersion, error)

	// Append 追加新版本，版本号为当前版本号 + 1
	Append(ctx context.Context, noteID int64, title, content string) (*NoteVersion, error)

	// Restore 将当前指针指向 versionNumber，并删除所有更大的版本，返回被删除的版本数
	Restore(ctx context.Context, noteID, versionNumber int64) (*NoteVersion, int64, error)

	// Delete 删除笔记及其全部版本
	Delete(ctx context.Context, noteID int64) error

	// ListCurrent 获取每个笔记的当前版本，按创建时间倒序
	ListCurrent(ctx context.Context) ([]*NoteVersion, error)

	// ListVersions 获取笔记的全部版本，按版本号倒序
	ListVersions(ctx context.Context, noteID int64) ([]*NoteVersion, error)

	// GetVersion 获取指定版本
	GetVersion(ctx context.Context, noteID, versionNumber int64) (*NoteVersion, error)

	// Get 获取笔记（仅指针信息）
	Get(ctx context.Context, noteID int64) (*Note, error)

	// CheckIntegrity 只读检查所有版本链的一致性
	CheckIntegrity(ctx context.Context) ([]IntegrityIssue, error)
}
