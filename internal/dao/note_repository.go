package dao

import (
	"context"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/internal/model"
	"github.com/haierkeys/note-chain-service/pkg/convert"
	"github.com/haierkeys/note-chain-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
	// rowLock 读取笔记时加 SELECT ... FOR UPDATE
	rowLock bool
}

var _ domain.NoteRepository = (*noteRepository)(nil)

// NewNoteRepository 创建 NoteRepository 实例
// rowLock 仅在数据库支持行锁时生效
func NewNoteRepository(dao *Dao, rowLock bool) domain.NoteRepository {
	return &noteRepository{dao: dao, rowLock: rowLock && dao.SupportsRowLock()}
}

func (r *noteRepository) toDomain(m *model.NoteVersion) *domain.NoteVersion {
	if m == nil {
		return nil
	}
	return convert.StructAssignTime(m, &domain.NoteVersion{}).(*domain.NoteVersion)
}

func (r *noteRepository) toDomainList(ms []model.NoteVersion) []*domain.NoteVersion {
	list := make([]*domain.NoteVersion, 0, len(ms))
	for i := range ms {
		list = append(list, r.toDomain(&ms[i]))
	}
	return list
}

// takeNote 读取笔记行，开启行锁时锁定到事务结束
func (r *noteRepository) takeNote(tx *gorm.DB, noteID int64) (*model.Note, error) {
	q := tx
	if r.rowLock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var note model.Note
	if err := q.Where("id = ?", noteID).Take(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// insertVersion 写入版本，唯一约束冲突转换为 domain.ErrVersionConflict
func (r *noteRepository) insertVersion(tx *gorm.DB, v *model.NoteVersion) error {
	err := tx.Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrapf(domain.ErrVersionConflict, "note %d version %d", v.NoteID, v.VersionNumber)
	}
	return errors.Wrap(err, "insert note version")
}

// pointTo 将笔记的当前指针指向 versionID
func (r *noteRepository) pointTo(tx *gorm.DB, noteID, versionID int64, now timex.Time) error {
	err := tx.Model(&model.Note{}).Where("id = ?", noteID).Updates(map[string]interface{}{
		"current_version_id": versionID,
		"updated_at":         now,
	}).Error
	return errors.Wrap(err, "update current version pointer")
}

// Create 创建笔记及其版本 1
func (r *noteRepository) Create(ctx context.Context, title, content string) (*domain.NoteVersion, error) {
	var created *model.NoteVersion

	err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		now := timex.Now()
		note := &model.Note{CreatedAt: now, UpdatedAt: now}
		if err := tx.Omit(clause.Associations).Create(note).Error; err != nil {
			return errors.Wrap(err, "insert note")
		}

		v := &model.NoteVersion{
			NoteID:        note.ID,
			VersionNumber: 1,
			Title:         title,
			Content:       content,
			CreatedAt:     now,
		}
		if err := r.insertVersion(tx, v); err != nil {
			return err
		}
		if err := r.pointTo(tx, note.ID, v.ID, now); err != nil {
			return err
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.toDomain(created), nil
}

// Append 追加新版本，版本号为当前版本号 + 1，笔记没有当前版本时为 1
func (r *noteRepository) Append(ctx context.Context, noteID int64, title, content string) (*domain.NoteVersion, error) {
	var created *model.NoteVersion

	err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		note, err := r.takeNote(tx, noteID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoteNotFound
		} else if err != nil {
			return errors.Wrap(err, "query note")
		}

		next := int64(1)
		if note.CurrentVersionID != nil {
			var current model.NoteVersion
			err := tx.Select("version_number").Where("id = ?", *note.CurrentVersionID).Take(&current).Error
			if err != nil {
				return errors.Wrap(err, "query current version")
			}
			next = current.VersionNumber + 1
		}

		now := timex.Now()
		v := &model.NoteVersion{
			NoteID:        noteID,
			VersionNumber: next,
			Title:         title,
			Content:       content,
			CreatedAt:     now,
		}
		if err := r.insertVersion(tx, v); err != nil {
			return err
		}
		if err := r.pointTo(tx, noteID, v.ID, now); err != nil {
			return err
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.toDomain(created), nil
}

// Restore 先将指针指向目标版本，再删除更大的版本
// 指针更新必须先于删除，任何一步失败整个事务回滚
func (r *noteRepository) Restore(ctx context.Context, noteID, versionNumber int64) (*domain.NoteVersion, int64, error) {
	var (
		target model.NoteVersion
		pruned int64
	)

	err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		if r.rowLock {
			_, err := r.takeNote(tx, noteID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrVersionNotFound
			} else if err != nil {
				return errors.Wrap(err, "lock note")
			}
		}

		err := tx.Where("note_id = ? AND version_number = ?", noteID, versionNumber).Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrVersionNotFound
		} else if err != nil {
			return errors.Wrap(err, "query target version")
		}

		if err := r.pointTo(tx, noteID, target.ID, timex.Now()); err != nil {
			return err
		}

		res := tx.Where("note_id = ? AND version_number > ?", noteID, versionNumber).Delete(&model.NoteVersion{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "prune newer versions")
		}
		pruned = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return r.toDomain(&target), pruned, nil
}

// Delete 删除笔记及其全部版本
// 先清空指针再删除版本，兼容 current_version_id 外键
func (r *noteRepository) Delete(ctx context.Context, noteID int64) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		_, err := r.takeNote(tx, noteID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoteNotFound
		} else if err != nil {
			return errors.Wrap(err, "query note")
		}

		if err := tx.Model(&model.Note{}).Where("id = ?", noteID).Update("current_version_id", nil).Error; err != nil {
			return errors.Wrap(err, "clear current version pointer")
		}
		if err := tx.Where("note_id = ?", noteID).Delete(&model.NoteVersion{}).Error; err != nil {
			return errors.Wrap(err, "delete note versions")
		}
		if err := tx.Where("id = ?", noteID).Delete(&model.Note{}).Error; err != nil {
			return errors.Wrap(err, "delete note")
		}
		return nil
	})
}

// ListCurrent 一条语句读取所有笔记的当前版本
func (r *noteRepository) ListCurrent(ctx context.Context) ([]*domain.NoteVersion, error) {
	var rows []model.NoteVersion
	err := r.dao.DB(ctx).
		Model(&model.NoteVersion{}).
		Select(model.TableNameNoteVersion + ".*").
		Joins("JOIN " + model.TableNameNote + " ON " + model.TableNameNote + ".current_version_id = " + model.TableNameNoteVersion + ".id AND " + model.TableNameNote + ".id = " + model.TableNameNoteVersion + ".note_id").
		Order(model.TableNameNoteVersion + ".created_at DESC").
		Order(model.TableNameNoteVersion + ".id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list current versions")
	}
	return r.toDomainList(rows), nil
}

// ListVersions 获取笔记的全部版本，没有任何版本时返回 domain.ErrNoteNotFound
func (r *noteRepository) ListVersions(ctx context.Context, noteID int64) ([]*domain.NoteVersion, error) {
	var rows []model.NoteVersion
	err := r.dao.DB(ctx).
		Where("note_id = ?", noteID).
		Order("version_number DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list note versions")
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoteNotFound
	}
	return r.toDomainList(rows), nil
}

// GetVersion 获取指定版本
func (r *noteRepository) GetVersion(ctx context.Context, noteID, versionNumber int64) (*domain.NoteVersion, error) {
	var m model.NoteVersion
	err := r.dao.DB(ctx).
		Where("note_id = ? AND version_number = ?", noteID, versionNumber).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrVersionNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "query note version")
	}
	return r.toDomain(&m), nil
}

// Get 获取笔记
func (r *noteRepository) Get(ctx context.Context, noteID int64) (*domain.Note, error) {
	var m model.Note
	err := r.dao.DB(ctx).Where("id = ?", noteID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoteNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "query note")
	}
	return convert.StructAssignTime(&m, &domain.Note{}).(*domain.Note), nil
}
