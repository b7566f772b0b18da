package domain

import "fmt"

// IssueKind 版本链完整性问题类型
type IssueKind string

const (
	// IssueDuplicateNumber 同一笔记存在重复版本号
	IssueDuplicateNumber IssueKind = "duplicate_number"
	// IssueGap 版本号不连续
	IssueGap IssueKind = "gap"
	// IssueMissingPointer 笔记有版本但没有当前版本指针
	IssueMissingPointer IssueKind = "missing_pointer"
	// IssueDanglingPointer 当前版本指针指向不存在或其它笔记的版本
	IssueDanglingPointer IssueKind = "dangling_pointer"
	// IssuePointerNotMax 当前版本不是最大版本号
	IssuePointerNotMax IssueKind = "pointer_not_max"
	// IssueOrphanVersion 版本所属笔记不存在
	IssueOrphanVersion IssueKind = "orphan_version"
	// IssueEmptyChain 笔记没有任何版本
	IssueEmptyChain IssueKind = "empty_chain"
)

// IntegrityIssue 一条完整性问题
type IntegrityIssue struct {
	NoteID int64
	Kind   IssueKind
	Detail string
}

func (i IntegrityIssue) String() string {
	return fmt.Sprintf("note %d: %s (%s)", i.NoteID, i.Kind, i.Detail)
}
