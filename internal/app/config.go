// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/note-chain-service/pkg/util"
	"github.com/haierkeys/note-chain-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	App      AppSettings    `yaml:"app"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Cors     CorsConfig     `yaml:"cors"`
	Limiter  LimiterConfig  `yaml:"limiter"`
	Fault    FaultConfig    `yaml:"fault"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 监听地址
	HttpPort string `yaml:"http-port" default:":8000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics、expvar、pprof），为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:8001"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型：sqlite、mysql、postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径，":memory:" 为内存库
	Path string `yaml:"path" default:"storage/database/notes.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Port 端口，0 使用默认端口
	Port int `yaml:"port"`
	// Name 数据库名
	Name string `yaml:"name"`
	// Charset 字符集（mysql）
	Charset string `yaml:"charset" default:"utf8mb4"`
	// SSLMode postgres sslmode
	SSLMode string `yaml:"ssl-mode" default:"disable"`
	// BusyTimeout sqlite 忙等待时间（毫秒）
	BusyTimeout int `yaml:"busy-timeout" default:"5000"`
	// Replicas 只读副本 DSN 列表（mysql/postgres）
	Replicas []string `yaml:"replicas"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m（分钟）、1h（小时），默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期，默认 10m
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 请求上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// DefaultLang 默认语言 en / zh
	DefaultLang string `yaml:"default-lang" default:"en"`
	// SerializeNoteWrites 同一笔记的写操作串行执行，mysql/postgres 上额外加行锁
	SerializeNoteWrites *bool `yaml:"serialize-note-writes" default:"true"`
	// CoalesceListReads 合并并发的笔记列表读取
	CoalesceListReads *bool `yaml:"coalesce-list-reads" default:"true"`
	// IntegrityCheckCron 版本链完整性检查的 cron 表达式，"off" 关闭
	IntegrityCheckCron string `yaml:"integrity-check-cron" default:"@every 6h"`
	// IntegrityCheckOnStartup 启动时执行一次完整性检查
	IntegrityCheckOnStartup bool `yaml:"integrity-check-on-startup" default:"false"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪 ID
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
	// JaegerAgent jaeger agent 地址（host:port），为空时不上报
	JaegerAgent string `yaml:"jaeger-agent"`
	// ServiceName 上报的服务名
	ServiceName string `yaml:"service-name" default:"note-chain-service"`
}

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowOrigins []string `yaml:"allow-origins" default:"[\"http://localhost:3000\"]"`
	MaxAge       int      `yaml:"max-age" default:"600"`
}

// LimiterConfig 限流配置，按路由前缀的令牌桶
type LimiterConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// Rules 限流规则
	Rules []LimiterRule `yaml:"rules"`
}

// LimiterRule 单条限流规则
type LimiterRule struct {
	Key          string `yaml:"key"`
	FillInterval string `yaml:"fill-interval" default:"1s"`
	Capacity     int64  `yaml:"capacity" default:"100"`
	Quantum      int64  `yaml:"quantum" default:"100"`
}

// FaultConfig 故障注入配置，仅用于演示前端的加载与错误状态
type FaultConfig struct {
	// Delay 每个笔记接口的人为延迟，如 500ms
	Delay string `yaml:"delay"`
	// ListErrorRate 笔记列表接口随机返回 500 的概率，0 关闭
	ListErrorRate float64 `yaml:"list-error-rate"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置并填充默认值
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	// YAML 中的限流规则不会带默认值，逐条补齐
	// 不对整个配置再次 defaults.Set：显式的 false 会被默认值 true 覆盖
	for i := range c.Limiter.Rules {
		if err := defaults.Set(&c.Limiter.Rules[i]); err != nil {
			return nil, errors.Wrap(err, "set default limiter rule failed")
		}
	}

	if len(c.Limiter.Rules) == 0 {
		c.Limiter.Rules = []LimiterRule{{Key: "/api/notes", FillInterval: "1s", Capacity: 100, Quantum: 100}}
	}

	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	cfg.WriteTimeout = util.MustParseDuration(c.App.WriteQueueTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.MustParseDuration(c.App.WriteQueueIdleTime, cfg.IdleTimeout)

	return cfg
}

// GetContextTimeout 获取请求上下文超时时间
func (c *AppConfig) GetContextTimeout() time.Duration {
	if c.App.DefaultContextTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.App.DefaultContextTimeout) * time.Second
}

// GetFaultDelay 获取故障注入延迟，未配置或非法时为 0
func (c *AppConfig) GetFaultDelay() time.Duration {
	if c.Fault.Delay == "" {
		return 0
	}
	return util.MustParseDuration(c.Fault.Delay, 0)
}

// SerializeNoteWrites 是否串行化同一笔记的写操作
func (c *AppConfig) SerializeNoteWrites() bool {
	return c.App.SerializeNoteWrites == nil || *c.App.SerializeNoteWrites
}

// CoalesceListReads 是否合并并发列表读取
func (c *AppConfig) CoalesceListReads() bool {
	return c.App.CoalesceListReads == nil || *c.App.CoalesceListReads
}
