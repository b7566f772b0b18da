package dao

import (
	"testing"

	"github.com/haierkeys/note-chain-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestAuditChains(t *testing.T) {
	tests := []struct {
		name     string
		notes    []integrityNoteRow
		versions []integrityVersionRow
		want     []domain.IssueKind
	}{
		{
			name:     "healthy",
			notes:    []integrityNoteRow{{ID: 1, CurrentVersionID: ptr(12)}},
			versions: []integrityVersionRow{{ID: 11, NoteID: 1, VersionNumber: 1}, {ID: 12, NoteID: 1, VersionNumber: 2}},
		},
		{
			name:     "gap",
			notes:    []integrityNoteRow{{ID: 1, CurrentVersionID: ptr(13)}},
			versions: []integrityVersionRow{{ID: 11, NoteID: 1, VersionNumber: 1}, {ID: 13, NoteID: 1, VersionNumber: 3}},
			want:     []domain.IssueKind{domain.IssueGap},
		},
		{
			name:     "duplicate",
			notes:    []integrityNoteRow{{ID: 1, CurrentVersionID: ptr(12)}},
			versions: []integrityVersionRow{{ID: 11, NoteID: 1, VersionNumber: 1}, {ID: 12, NoteID: 1, VersionNumber: 1}},
			want:     []domain.IssueKind{domain.IssueDuplicateNumber},
		},
		{
			name:     "missing pointer",
			notes:    []integrityNoteRow{{ID: 1}},
			versions: []integrityVersionRow{{ID: 11, NoteID: 1, VersionNumber: 1}},
			want:     []domain.IssueKind{domain.IssueMissingPointer},
		},
		{
			name:  "empty chain",
			notes: []integrityNoteRow{{ID: 1}},
			want:  []domain.IssueKind{domain.IssueEmptyChain},
		},
		{
			name:     "pointer to another note",
			notes:    []integrityNoteRow{{ID: 1, CurrentVersionID: ptr(21)}, {ID: 2, CurrentVersionID: ptr(21)}},
			versions: []integrityVersionRow{{ID: 11, NoteID: 1, VersionNumber: 1}, {ID: 21, NoteID: 2, VersionNumber: 1}},
			want:     []domain.IssueKind{domain.IssueDanglingPointer},
		},
		{
			name:     "orphan",
			versions: []integrityVersionRow{{ID: 31, NoteID: 3, VersionNumber: 1}},
			want:     []domain.IssueKind{domain.IssueOrphanVersion},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := auditChains(tt.notes, tt.versions)
			var kinds []domain.IssueKind
			for _, i := range issues {
				kinds = append(kinds, i.Kind)
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}
