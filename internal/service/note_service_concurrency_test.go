package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// 并发追加同一笔记：只允许成功或 ConflictViolation，版本链始终稠密
func TestNoteService_ConcurrentAppends(t *testing.T) {
	for _, serialize := range []bool{true, false} {
		name := "unserialized"
		if serialize {
			name = "serialized"
		}
		t.Run(name, func(t *testing.T) {
			svc, closeFn := openService(t, serialize)
			defer closeFn()
			ctx := context.Background()

			v1, err := svc.CreateNote(ctx, "t", "c")
			require.NoError(t, err)

			const writers = 16
			var ok, conflicts atomic.Int64

			g, gctx := errgroup.WithContext(ctx)
			for i := 0; i < writers; i++ {
				g.Go(func() error {
					_, err := svc.AppendVersion(gctx, v1.NoteID, "t", "c")
					switch {
					case err == nil:
						ok.Add(1)
					case code.IsConflict(err):
						conflicts.Add(1)
					default:
						return err
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())
			assert.Equal(t, int64(writers), ok.Load()+conflicts.Load())
			if serialize {
				assert.Zero(t, conflicts.Load())
			}

			versions, err := svc.GetVersions(ctx, v1.NoteID)
			require.NoError(t, err)
			assert.Len(t, versions, int(ok.Load())+1)
			for i, v := range versions {
				assert.Equal(t, int64(len(versions)-i), v.VersionNumber)
			}

			issues, err := svc.CheckIntegrity(ctx)
			require.NoError(t, err)
			assert.Empty(t, issues)
		})
	}
}

// 不同笔记的写操作互不影响
func TestNoteService_ConcurrentNotesIndependent(t *testing.T) {
	svc, closeFn := openService(t, true)
	defer closeFn()
	ctx := context.Background()

	const notes = 4
	const appends = 5

	var g errgroup.Group
	for i := 0; i < notes; i++ {
		g.Go(func() error {
			v, err := svc.CreateNote(ctx, "t", "c")
			if err != nil {
				return err
			}
			for j := 0; j < appends; j++ {
				if _, err := svc.AppendVersion(ctx, v.NoteID, "t", "c"); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	list, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, notes)
	for _, cur := range list {
		assert.Equal(t, int64(appends+1), cur.VersionNumber)
	}
}
