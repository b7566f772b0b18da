package model

import "github.com/haierkeys/note-chain-service/pkg/timex"

const TableNameNoteVersion = "note_versions"

// NoteVersion mapped from table <note_versions>
type NoteVersion struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID        int64      `gorm:"column:note_id;not null;uniqueIndex:uq_note_version,priority:1" json:"noteId" form:"noteId"`
	VersionNumber int64      `gorm:"column:version_number;not null;uniqueIndex:uq_note_version,priority:2" json:"versionNumber" form:"versionNumber"`
	Title         string     `gorm:"column:title;type:text;not null" json:"title" form:"title"`
	Content       string     `gorm:"column:content;type:text;not null" json:"content" form:"content"`
	CreatedAt     timex.Time `gorm:"column:created_at;not null;index:idx_note_versions_created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName NoteVersion's table name
func (*NoteVersion) TableName() string {
	return TableNameNoteVersion
}
