package model

import (
	"gorm.io/gorm"
)

// Models 所有需要迁移的模型，顺序即建表顺序
func Models() []interface{} {
	return []interface{}{
		&Note{},
		&NoteVersion{},
	}
}

// AutoMigrate 迁移所有模型
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
