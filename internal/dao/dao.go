// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/fileurl"
	"github.com/haierkeys/note-chain-service/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// 支持的数据库类型
const (
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// DatabaseConfig 数据库配置（dao 层使用的副本，避免依赖 app 包）
type DatabaseConfig struct {
	Type            string
	Path            string
	UserName        string
	Password        string
	Host            string
	Port            int
	Name            string
	Charset         string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	BusyTimeout     int
	// Replicas 只读副本 DSN，仅 mysql/postgres 生效
	Replicas []string
	// Tracing 是否注册 opentracing 插件
	Tracing bool
	RunMode string
}

type Dao struct {
	Db     *gorm.DB
	ctx    context.Context
	config *DatabaseConfig
	logger *zap.Logger
}

// Option Dao 配置项
type Option func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(cfg *DatabaseConfig) Option {
	return func(d *Dao) { d.config = cfg }
}

// WithLogger 设置日志器
func WithLogger(lg *zap.Logger) Option {
	return func(d *Dao) { d.logger = lg }
}

// New 创建 Dao
func New(db *gorm.DB, ctx context.Context, opts ...Option) *Dao {
	d := &Dao{Db: db, ctx: ctx}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.config == nil {
		d.config = &DatabaseConfig{Type: db.Dialector.Name()}
	}
	return d
}

// DB 返回带 context 的数据库会话
func (d *Dao) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		ctx = d.ctx
	}
	return d.Db.WithContext(ctx)
}

// Dialect 返回当前数据库方言名称
func (d *Dao) Dialect() string {
	return d.Db.Dialector.Name()
}

// SupportsRowLock reports whether SELECT ... FOR UPDATE is available
// SupportsRowLock 当前数据库是否支持行锁，sqlite 仅有库级写锁
func (d *Dao) SupportsRowLock() bool {
	switch d.Dialect() {
	case DialectMySQL, DialectPostgres:
		return true
	}
	return false
}

// Transaction 在一个数据库事务中执行 fn，fn 返回错误时回滚
func (d *Dao) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB(ctx).Transaction(fn)
}

// Ping 检查数据库连接
func (d *Dao) Ping(ctx context.Context) error {
	sqlDB, err := d.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// NewDBEngineWithConfig 根据配置创建数据库连接
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := newDialector(c)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if c.RunMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(lg, logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", c.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// sqlite 只使用一个连接：写操作天然串行，内存库也不会因连接回收而丢失
	if c.Type == DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		if c.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		}
		if c.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(c.MaxOpenConns)
		}
		sqlDB.SetConnMaxLifetime(util.MustParseDuration(c.ConnMaxLifetime, 30*time.Minute))
		sqlDB.SetConnMaxIdleTime(util.MustParseDuration(c.ConnMaxIdleTime, 10*time.Minute))
	}

	if len(c.Replicas) > 0 && c.Type != DialectSQLite {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, dsn := range c.Replicas {
			replicas = append(replicas, replicaDialector(c.Type, dsn))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
		lg.Info("database read replicas registered", zap.Int("count", len(replicas)))
	}

	if c.Tracing {
		if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil {
			return nil, fmt.Errorf("register tracing plugin: %w", err)
		}
	}

	return db, nil
}

func newDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case DialectSQLite:
		return sqlite.Open(SQLiteDSN(c.Path, c.BusyTimeout)), nil
	case DialectMySQL:
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		host := c.Host
		if c.Port > 0 && !strings.Contains(host, ":") {
			host = fmt.Sprintf("%s:%d", host, c.Port)
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=UTC",
			c.UserName, c.Password, host, c.Name, charset)), nil
	case DialectPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		port := c.Port
		if port == 0 {
			port = 5432
		}
		return postgres.Open(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, port, c.UserName, c.Password, c.Name, sslMode)), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", c.Type)
}

func replicaDialector(dbType, dsn string) gorm.Dialector {
	if dbType == DialectPostgres {
		return postgres.Open(dsn)
	}
	return mysql.Open(dsn)
}

// SQLiteDSN 构造 sqlite 连接串，开启外键约束
// path 为 ":memory:" 时使用内存数据库
func SQLiteDSN(path string, busyTimeout int) string {
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}
	pragmas := fmt.Sprintf("_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", busyTimeout)
	if path == "" || path == ":memory:" {
		return "file::memory:?" + pragmas
	}
	if !fileurl.IsExist(filepath.Dir(path)) {
		_ = fileurl.CreatePath(path, os.ModePerm)
	}
	return path + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}
