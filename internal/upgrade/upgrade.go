// Package upgrade 数据库结构升级
package upgrade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/note-chain-service/internal/model"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(db *gorm.DB, ctx context.Context) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	appVersion string
	migrations []Migration
}

// NewMigrationManager 创建升级管理器
// appVersion 为当前程序版本，高于它的升级脚本不会执行
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, appVersion string) *MigrationManager {
	return &MigrationManager{
		db:         db,
		logger:     logger,
		appVersion: canonical(appVersion),
		migrations: []Migration{
			// 在这里注册所有的升级脚本
			&InitialSchema{},
			&CurrentVersionForeignKey{},
		},
	}
}

// canonical 补齐 semver 需要的 "v" 前缀
func canonical(version string) string {
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}

// Pending 返回尚未执行的升级脚本，按版本从低到高排序
func (m *MigrationManager) Pending() ([]Migration, error) {
	appliedVersions, err := m.getAppliedVersions()
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, migration := range m.migrations {
		scriptVersion := canonical(migration.Version())
		if !semver.IsValid(scriptVersion) {
			return nil, fmt.Errorf("migration %q has an invalid version", migration.Version())
		}
		if appliedVersions[scriptVersion] {
			continue
		}
		// 比较版本: 如果 migration.Version > appVersion, 则跳过
		if semver.IsValid(m.appVersion) && semver.Compare(scriptVersion, m.appVersion) > 0 {
			m.logger.Info("skip migration > appVersion",
				zap.String("scriptVersion", scriptVersion),
				zap.String("appVersion", m.appVersion))
			continue
		}
		pending = append(pending, migration)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return semver.Compare(canonical(pending[i].Version()), canonical(pending[j].Version())) < 0
	})
	return pending, nil
}

// Run 执行升级
func (m *MigrationManager) Run(ctx context.Context) error {
	m.logger.Info("Migration started", zap.String("appVersion", m.appVersion))

	if err := model.AutoMigrate(m.db.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to dao db auto migrate: %w", err)
	}

	// 确保 schema_version 表存在
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	pending, err := m.Pending()
	if err != nil {
		return err
	}

	// 执行所有未执行的升级
	executed := 0
	for _, migration := range pending {
		m.logger.Info("applying migration",
			zap.String("scriptVersion", migration.Version()),
			zap.String("desc", migration.Description()))

		// 在事务中执行升级
		if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 执行升级脚本
			if err := migration.Up(tx, ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			// 记录版本
			record := &SchemaVersion{
				Version:     canonical(migration.Version()),
				Description: migration.Description(),
				AppliedAt:   time.Now().UTC(),
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to record version: %w", err)
			}

			return nil
		}); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version(), err)
		}

		m.logger.Info("migration applied successfully", zap.String("scriptVersion", migration.Version()))
		executed++
	}

	if executed == 0 {
		m.logger.Info("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", executed))
	}

	return nil
}

// getAppliedVersions 获取已应用的数据库版本
func (m *MigrationManager) getAppliedVersions() (map[string]bool, error) {
	var versions []SchemaVersion
	err := m.db.Find(&versions).Error
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool)
	for _, v := range versions {
		applied[canonical(v.Version)] = true
	}
	return applied, nil
}

// Execute 执行升级(便捷方法)
func Execute(ctx context.Context, db *gorm.DB, logger *zap.Logger, appVersion string) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if logger == nil {
		return fmt.Errorf("logger not initialized")
	}

	return NewMigrationManager(db, logger, appVersion).Run(ctx)
}
