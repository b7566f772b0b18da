package service

import (
	"context"
	"testing"

	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"
)

// 追加 n 次后版本号恰好为 1..n+1，恢复到 k 后只剩 1..k
func TestProperty_AppendAndRestoreKeepChainDense(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("appends are dense and restore prunes above k", prop.ForAll(
		func(appends int, pick int) bool {
			svc, closeFn := openService(t, true)
			defer closeFn()
			ctx := context.Background()

			v1, err := svc.CreateNote(ctx, "t", "c")
			if err != nil {
				t.Logf("create: %v", err)
				return false
			}
			for i := 0; i < appends; i++ {
				v, err := svc.AppendVersion(ctx, v1.NoteID, "t", "c")
				if err != nil || v.VersionNumber != int64(i+2) {
					t.Logf("append %d: %v", i, err)
					return false
				}
			}

			total := appends + 1
			versions, err := svc.GetVersions(ctx, v1.NoteID)
			if err != nil || len(versions) != total {
				return false
			}
			for i, v := range versions {
				if v.VersionNumber != int64(total-i) {
					return false
				}
			}

			k := int64(pick%total + 1)
			restored, err := svc.RestoreVersion(ctx, v1.NoteID, k)
			if err != nil || restored.VersionNumber != k {
				return false
			}
			versions, err = svc.GetVersions(ctx, v1.NoteID)
			if err != nil || int64(len(versions)) != k || versions[0].VersionNumber != k {
				return false
			}

			issues, err := svc.CheckIntegrity(ctx)
			return err == nil && len(issues) == 0
		},
		gen.IntRange(0, 12),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// 随机操作序列下，每一步之后版本链都与模型一致
func TestStateMachine_VersionChain(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc, closeFn := openService(t, true)
		defer closeFn()
		ctx := context.Background()

		// noteID -> 当前版本号
		chains := map[int64]int64{}
		var deleted []int64

		ids := func() []int64 {
			out := make([]int64, 0, len(chains))
			for id := range chains {
				out = append(out, id)
			}
			return out
		}

		t.Repeat(map[string]func(*rapid.T){
			"create": func(t *rapid.T) {
				title := rapid.StringN(0, 16, -1).Draw(t, "title")
				v, err := svc.CreateNote(ctx, title, "body")
				if err != nil {
					t.Fatalf("create: %v", err)
				}
				if v.VersionNumber != 1 || v.Title != title {
					t.Fatalf("create returned %+v", v)
				}
				chains[v.NoteID] = 1
			},
			"append": func(t *rapid.T) {
				if len(chains) == 0 {
					t.Skip("no notes")
				}
				id := rapid.SampledFrom(ids()).Draw(t, "note")
				v, err := svc.AppendVersion(ctx, id, "t", "c")
				if err != nil {
					t.Fatalf("append: %v", err)
				}
				if v.VersionNumber != chains[id]+1 {
					t.Fatalf("append got version %d, want %d", v.VersionNumber, chains[id]+1)
				}
				chains[id] = v.VersionNumber
			},
			"restore": func(t *rapid.T) {
				if len(chains) == 0 {
					t.Skip("no notes")
				}
				id := rapid.SampledFrom(ids()).Draw(t, "note")
				k := rapid.Int64Range(1, chains[id]+2).Draw(t, "k")
				v, err := svc.RestoreVersion(ctx, id, k)
				if k > chains[id] {
					if !code.IsNotFound(err) {
						t.Fatalf("restore above current: %v", err)
					}
					return
				}
				if err != nil || v.VersionNumber != k {
					t.Fatalf("restore %d: %v", k, err)
				}
				chains[id] = k
			},
			"delete": func(t *rapid.T) {
				if len(chains) == 0 {
					t.Skip("no notes")
				}
				id := rapid.SampledFrom(ids()).Draw(t, "note")
				if err := svc.DeleteNote(ctx, id); err != nil {
					t.Fatalf("delete: %v", err)
				}
				delete(chains, id)
				deleted = append(deleted, id)
			},
			"": func(t *rapid.T) {
				list, err := svc.ListNotes(ctx)
				if err != nil {
					t.Fatalf("list: %v", err)
				}
				if len(list) != len(chains) {
					t.Fatalf("list has %d notes, model has %d", len(list), len(chains))
				}
				for _, cur := range list {
					if chains[cur.NoteID] != cur.VersionNumber {
						t.Fatalf("note %d current %d, model %d", cur.NoteID, cur.VersionNumber, chains[cur.NoteID])
					}
				}
				for id, n := range chains {
					versions, err := svc.GetVersions(ctx, id)
					if err != nil || int64(len(versions)) != n {
						t.Fatalf("note %d has %d versions, want %d (%v)", id, len(versions), n, err)
					}
				}
				for _, id := range deleted {
					if _, err := svc.GetVersions(ctx, id); !code.IsNotFound(err) {
						t.Fatalf("deleted note %d still readable: %v", id, err)
					}
				}
				issues, err := svc.CheckIntegrity(ctx)
				if err != nil || len(issues) > 0 {
					t.Fatalf("integrity: %v %v", issues, err)
				}
			},
		})
	})
}
