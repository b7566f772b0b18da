package dao

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/haierkeys/note-chain-service/internal/domain"
	"github.com/haierkeys/note-chain-service/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type integrityNoteRow struct {
	ID               int64
	CurrentVersionID *int64
}

type integrityVersionRow struct {
	ID            int64
	NoteID        int64
	VersionNumber int64
}

// CheckIntegrity 在一个只读事务内检查所有版本链，不做任何修复
func (r *noteRepository) CheckIntegrity(ctx context.Context) ([]domain.IntegrityIssue, error) {
	var (
		notes    []integrityNoteRow
		versions []integrityVersionRow
	)

	err := r.dao.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Note{}).Select("id", "current_version_id").Order("id").Find(&notes).Error; err != nil {
			return errors.Wrap(err, "scan notes")
		}
		if err := tx.Model(&model.NoteVersion{}).Select("id", "note_id", "version_number").Order("note_id, version_number").Find(&versions).Error; err != nil {
			return errors.Wrap(err, "scan note versions")
		}
		return nil
	}, &sql.TxOptions{ReadOnly: r.dao.Dialect() != DialectSQLite})
	if err != nil {
		return nil, err
	}

	return auditChains(notes, versions), nil
}

// auditChains 根据笔记与版本的快照计算完整性问题
func auditChains(notes []integrityNoteRow, versions []integrityVersionRow) []domain.IntegrityIssue {
	var issues []domain.IntegrityIssue

	byNote := make(map[int64][]integrityVersionRow)
	byID := make(map[int64]integrityVersionRow, len(versions))
	for _, v := range versions {
		byNote[v.NoteID] = append(byNote[v.NoteID], v)
		byID[v.ID] = v
	}

	known := make(map[int64]struct{}, len(notes))
	for _, n := range notes {
		known[n.ID] = struct{}{}
		chain := byNote[n.ID]
		sort.Slice(chain, func(i, j int) bool { return chain[i].VersionNumber < chain[j].VersionNumber })

		var max int64
		for i, v := range chain {
			if i > 0 && v.VersionNumber == chain[i-1].VersionNumber {
				issues = append(issues, domain.IntegrityIssue{NoteID: n.ID, Kind: domain.IssueDuplicateNumber,
					Detail: fmt.Sprintf("version %d appears more than once", v.VersionNumber)})
			}
			if v.VersionNumber > max {
				max = v.VersionNumber
			}
		}
		// 版本号集合必须恰好是 {1..max}
		if distinct := countDistinct(chain); int64(distinct) != max || (len(chain) > 0 && chain[0].VersionNumber < 1) {
			issues = append(issues, domain.IntegrityIssue{NoteID: n.ID, Kind: domain.IssueGap,
				Detail: fmt.Sprintf("%d distinct versions but max is %d", distinct, max)})
		}

		if n.CurrentVersionID == nil {
			if len(chain) == 0 {
				issues = append(issues, domain.IntegrityIssue{NoteID: n.ID, Kind: domain.IssueEmptyChain, Detail: "note has no versions"})
			} else {
				issues = append(issues, domain.IntegrityIssue{NoteID: n.ID, Kind: domain.IssueMissingPointer, Detail: "current version is not set"})
			}
			continue
		}

		current, ok := byID[*n.CurrentVersionID]
		if !ok || current.NoteID != n.ID {
			issues = append(issues, domain.IntegrityIssue{NoteID: n.ID, Kind: domain.IssueDanglingPointer,
				Detail: fmt.Sprintf("current version id %d does not belong to the note", *n.CurrentVersionID)})
			continue
		}
		if current.VersionNumber != max {
			issues = append(issues, domain.IntegrityIssue{NoteID: n.ID, Kind: domain.IssuePointerNotMax,
				Detail: fmt.Sprintf("current version %d, max version %d", current.VersionNumber, max)})
		}
	}

	orphans := make(map[int64]int)
	for _, v := range versions {
		if _, ok := known[v.NoteID]; !ok {
			orphans[v.NoteID]++
		}
	}
	orphanIDs := make([]int64, 0, len(orphans))
	for id := range orphans {
		orphanIDs = append(orphanIDs, id)
	}
	sort.Slice(orphanIDs, func(i, j int) bool { return orphanIDs[i] < orphanIDs[j] })
	for _, id := range orphanIDs {
		issues = append(issues, domain.IntegrityIssue{NoteID: id, Kind: domain.IssueOrphanVersion,
			Detail: fmt.Sprintf("%d versions reference a missing note", orphans[id])})
	}

	return issues
}

// countDistinct 统计有序版本链中不同版本号的数量
func countDistinct(chain []integrityVersionRow) int {
	n := 0
	for i, v := range chain {
		if i == 0 || v.VersionNumber != chain[i-1].VersionNumber {
			n++
		}
	}
	return n
}
