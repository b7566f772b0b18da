package upgrade

import (
	"context"

	"github.com/haierkeys/note-chain-service/internal/model"

	"gorm.io/gorm"
)

// InitialSchema v1.0.0 基线：notes 与 note_versions 由 AutoMigrate 创建
type InitialSchema struct{}

func (m *InitialSchema) Version() string {
	return "1.0.0"
}

func (m *InitialSchema) Description() string {
	return "Create notes and note_versions tables"
}

func (m *InitialSchema) Up(db *gorm.DB, ctx context.Context) error {
	return nil
}

// CurrentVersionForeignKey v1.1.0 为 notes.current_version_id 增加外键
// SQLite 不能修改已有表的约束，只记录版本
type CurrentVersionForeignKey struct{}

const currentVersionFKName = "fk_notes_current_version"

func (m *CurrentVersionForeignKey) Version() string {
	return "1.1.0"
}

func (m *CurrentVersionForeignKey) Description() string {
	return "Add foreign key notes.current_version_id -> note_versions.id"
}

func (m *CurrentVersionForeignKey) Up(db *gorm.DB, ctx context.Context) error {
	db = db.WithContext(ctx)
	switch db.Dialector.Name() {
	case "mysql", "postgres":
	default:
		return nil
	}

	if db.Migrator().HasConstraint(&model.Note{}, currentVersionFKName) {
		return nil
	}

	return db.Exec(
		"ALTER TABLE " + model.TableNameNote + " ADD CONSTRAINT " + currentVersionFKName +
			" FOREIGN KEY (current_version_id) REFERENCES " + model.TableNameNoteVersion + " (id)",
	).Error
}
