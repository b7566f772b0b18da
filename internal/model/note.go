package model

import "github.com/haierkeys/note-chain-service/pkg/timex"

const TableNameNote = "notes"

// Note mapped from table <notes>
// CurrentVersionID 指向当前版本，仅在同一事务内创建首个版本前短暂为空
type Note struct {
	ID               int64         `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	CurrentVersionID *int64        `gorm:"column:current_version_id;index:idx_notes_current_version" json:"currentVersionId" form:"currentVersionId"`
	CreatedAt        timex.Time    `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt        timex.Time    `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
	Versions         []NoteVersion `gorm:"foreignKey:NoteID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}
