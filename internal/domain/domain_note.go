// Package domain 定义领域模型和接口
package domain

import (
	"errors"
	"time"
)

// Note 笔记领域模型，一条不可变版本链加一个当前版本指针
type Note struct {
	ID               int64
	CurrentVersionID *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NoteVersion 笔记版本领域模型，写入后不可修改
type NoteVersion struct {
	ID            int64
	NoteID        int64
	VersionNumber int64
	Title         string
	Content       string
	CreatedAt     time.Time
}

// Repository errors, mapped to response codes by the service layer
// 仓储层错误，由 service 层映射为响应码
var (
	// ErrNoteNotFound 笔记不存在
	ErrNoteNotFound = errors.New("note not found")
	// ErrVersionNotFound 版本不存在
	ErrVersionNotFound = errors.New("version not found")
	// ErrVersionConflict (note_id, version_number) 唯一约束冲突
	ErrVersionConflict = errors.New("version number conflict")
)
