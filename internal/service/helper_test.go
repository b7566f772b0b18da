package service

import (
	"context"

	"github.com/haierkeys/note-chain-service/internal/dao"
	"github.com/haierkeys/note-chain-service/internal/model"
	"github.com/haierkeys/note-chain-service/pkg/writequeue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openService 基于内存 sqlite 创建完整的 NoteService，返回关闭函数
// t 可以是 *testing.T 或 *rapid.T
func openService(t require.TestingT, serialize bool) (NoteService, func()) {
	svc, _, closeFn := openServiceWithQueue(t, serialize, nil)
	return svc, closeFn
}

// openServiceWithQueue 与 openService 相同，可指定写队列配置，并返回写队列
func openServiceWithQueue(t require.TestingT, serialize bool, qcfg *writequeue.Config) (NoteService, *writequeue.Manager, func()) {
	cfg := dao.DatabaseConfig{Type: dao.DialectSQLite, Path: ":memory:"}
	db, err := dao.NewDBEngineWithConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	d := dao.New(db, context.Background(), dao.WithConfig(&cfg))
	queue := writequeue.New(qcfg, nil)
	svc := NewNoteService(
		dao.NewNoteRepository(d, serialize),
		queue,
		NewMetrics(prometheus.NewRegistry()),
		zap.NewNop(),
		&ServiceConfig{SerializeNoteWrites: serialize, CoalesceListReads: true},
	)

	return svc, queue, func() {
		_ = queue.Shutdown(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
