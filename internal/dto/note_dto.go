// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import (
	"github.com/haierkeys/note-chain-service/pkg/timex"
)

// NoteVersionDTO Note version data transfer object
// NoteVersionDTO 笔记版本数据传输对象
// Field names follow the snake_case wire format the web client consumes
// 字段名使用 web 客户端使用的 snake_case 格式
type NoteVersionDTO struct {
	ID            int64      `json:"id"`
	NoteID        int64      `json:"note_id"`
	VersionNumber int64      `json:"version_number"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	CreatedAt     timex.Time `json:"created_at"`
}

// NoteCreateRequest Request parameters for creating a note or appending a version
// NoteCreateRequest 创建笔记或追加版本的请求参数
type NoteCreateRequest struct {
	Title   string `json:"title" form:"title" binding:"required,notblank,max=200"`
	Content string `json:"content" form:"content" binding:"required,notblank,max=10000"`
}

// NoteIDRequest note id path parameter
// NoteIDRequest 笔记 ID 路径参数
type NoteIDRequest struct {
	NoteID int64 `uri:"noteId" json:"noteId" binding:"required,gt=0"`
}

// NoteVersionRequest note id and version number path parameters
// NoteVersionRequest 笔记 ID 与版本号路径参数
type NoteVersionRequest struct {
	NoteID        int64 `uri:"noteId" json:"noteId" binding:"required,gt=0"`
	VersionNumber int64 `uri:"versionNumber" json:"versionNumber" binding:"required,gt=0"`
}

// DeleteResultDTO delete operation result
// DeleteResultDTO 删除操作结果
type DeleteResultDTO struct {
	Message string `json:"message"`
}
