package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`    // 服务器配置
	Postgres  PostgresConfig  `mapstructure:"postgres"`  // PostgreSQL配置
	Scheduler SchedulerConfig `mapstructure:"scheduler"` // 定时任务配置
	Clist     ClistConfig     `mapstructure:"clist"`     // clist.by数据源配置
	Google    GoogleConfig    `mapstructure:"google"`    // Google日历/邮件配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SchedulerConfig 定时任务配置（三个任务独立节奏，互不依赖）
type SchedulerConfig struct {
	Timezone     string `mapstructure:"timezone"`      // IANA时区，如Asia/Kolkata
	IngestCron   string `mapstructure:"ingest_cron"`   // 竞赛拉取任务Cron（默认每5分钟）
	SweepCron    string `mapstructure:"sweep_cron"`    // 全量排期任务Cron（默认每2分钟）
	DispatchCron string `mapstructure:"dispatch_cron"` // 邮件执行任务Cron（默认每1分钟）
}

// ClistConfig clist.by数据源配置
type ClistConfig struct {
	BaseURL  string `mapstructure:"base_url"` // API基础地址
	Username string `mapstructure:"username"` // clist.by用户名
	APIKey   string `mapstructure:"api_key"`  // clist.by API Key
	Timeout  int    `mapstructure:"timeout"`  // 请求超时（秒）
	Limit    int    `mapstructure:"limit"`    // 单次拉取条数上限
	Proxy    string `mapstructure:"proxy"`    // 代理地址
}

// GoogleConfig Google OAuth配置（日历同步与Gmail发信共用一套Client）
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`     // OAuth Client ID
	ClientSecret string `mapstructure:"client_secret"` // OAuth Client Secret
	RedirectURI  string `mapstructure:"redirect_uri"`  // OAuth回调地址
	RefreshToken string `mapstructure:"refresh_token"` // 发信账号的刷新令牌
	SenderEmail  string `mapstructure:"sender_email"`  // 发信邮箱
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("CLIST_USERNAME"); v != "" {
		cfg.Clist.Username = v
	}
	if v := os.Getenv("CLIST_API_KEY"); v != "" {
		cfg.Clist.APIKey = v
	}
	if v := os.Getenv("CLIST_PROXY"); v != "" {
		cfg.Clist.Proxy = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_MAIL_REFRESH_TOKEN"); v != "" {
		cfg.Google.RefreshToken = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.Google.SenderEmail = v
	}
}

// applyDefaults 填充未配置项的默认值（拉取/排期/发送默认5/2/1分钟）
func applyDefaults(cfg *Config) {
	if cfg.Clist.BaseURL == "" {
		cfg.Clist.BaseURL = "https://clist.by/api/v4/contest/"
	}
	if cfg.Clist.Limit <= 0 {
		cfg.Clist.Limit = 100
	}
	if cfg.Clist.Timeout <= 0 {
		cfg.Clist.Timeout = 15
	}
	if cfg.Scheduler.IngestCron == "" {
		cfg.Scheduler.IngestCron = "*/5 * * * *"
	}
	if cfg.Scheduler.SweepCron == "" {
		cfg.Scheduler.SweepCron = "*/2 * * * *"
	}
	if cfg.Scheduler.DispatchCron == "" {
		cfg.Scheduler.DispatchCron = "*/1 * * * *"
	}
}
