package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level  string
	JSON   bool
	Rotate LogRotate
}

// LogRotate 文件切割（Enable=false 时只写 stdout）
type LogRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	CatalogTTL int    `mapstructure:"catalog_ttl_sec"`
}

// Store 选择记录存储后端：file（默认）/ mysql / postgres
type Store struct {
	Driver             string
	DataDir            string `mapstructure:"data_dir"`
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
}

type Limits struct {
	RPS           float64
	Burst         int
	PerIPRPS      float64 `mapstructure:"per_ip_rps"`
	PerIPBurst    int     `mapstructure:"per_ip_burst"`
	MaxInFlight   int64   `mapstructure:"max_in_flight"`
	MaxBodyBytes  int64   `mapstructure:"max_body_bytes"`
	RequestTimeMs int     `mapstructure:"request_timeout_ms"`
}

// Bootstrap 启动时确保存在的管理员账号（为空则跳过）
type Bootstrap struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	Store     Store
	Redis     Redis `mapstructure:"redis"`
	Limits    Limits
	Bootstrap Bootstrap
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketplace-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3001)
	v.SetDefault("app.http.readtimeoutsec", 10)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 3002)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "marketplace-api")
	v.SetDefault("jwt.accesstokenttlmin", 120)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.maxopenconns", 10)
	v.SetDefault("store.maxidleconns", 5)
	v.SetDefault("store.connmaxlifetimemin", 30)
	v.SetDefault("redis.catalog_ttl_sec", 30)
	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.per_ip_rps", 50)
	v.SetDefault("limits.per_ip_burst", 100)
	v.SetDefault("limits.max_in_flight", 300)
	v.SetDefault("limits.max_body_bytes", 16<<20)
	v.SetDefault("limits.request_timeout_ms", 10000)
	// 空默认值让 APP_BOOTSTRAP_* 环境变量可被 Unmarshal 读到
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
}

// Load 读取 yaml 配置；APP_ 前缀环境变量覆盖（APP_STORE_DRIVER=postgres）
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选：缺失时使用默认值 + 环境变量
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = "dev-secret-change-me"
	}
	return &c, nil
}

// MustLoad 与 Load 相同，失败直接退出
func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return c
}
