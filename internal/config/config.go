package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from .env files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	Tokens   TokenConfig    `mapstructure:"tokens"`
	Locale   LocaleConfig   `mapstructure:"locale"`
	Log      LogConfig      `mapstructure:"log"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
	// PublicBaseURL 是本服务对外的地址，用于拼接短链接和资源地址。
	PublicBaseURL string `mapstructure:"public_base_url"`
	// ViewerBaseURL 是前端查看页地址，分享链接的查询参数拼接在它后面。
	ViewerBaseURL        string   `mapstructure:"viewer_base_url"`
	AllowedOrigins       []string `mapstructure:"allowed_origins"`
	MaxCreatesPerIPDaily int      `mapstructure:"max_creates_per_ip_per_day"`
	// MetricsToken 非空时 /metrics 需要 Bearer 令牌。
	MetricsToken string `mapstructure:"metrics_token"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	BucketLookup    string `mapstructure:"bucket_lookup"`
	// PublicEndpoint 是浏览器可访问的地址，预签名链接使用它签名。
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// ClamdConfig 病毒扫描服务地址，例如 tcp://clamav:3310。留空时跳过扫描。
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// TokenConfig 编辑令牌签名配置。
type TokenConfig struct {
	EditTokenSecret string        `mapstructure:"edit_token_secret"`
	EditTokenTTL    time.Duration `mapstructure:"edit_token_ttl"`
}

// LocaleConfig 启动时读取一次的语言设置。
type LocaleConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
}

// LogConfig controls the slog handler and optional file rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// WorkerConfig 预览图 worker 配置。
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	// FrontendBaseURL 非空时 worker 直接截取前端查看页，否则使用内置模板渲染。
	FrontendBaseURL string `mapstructure:"frontend_base_url"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from an optional .env file and environment variables (with defaults).
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.API.AllowedOrigins = splitList(cfg.API.AllowedOrigins)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile 读取 ENV_FILE（默认 .env），文件不存在时忽略。已存在的环境变量不会被覆盖。
func loadEnvFile() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// splitList 兼容环境变量里以逗号分隔的列表。
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.public_base_url", "http://localhost:8080")
	v.SetDefault("api.viewer_base_url", "http://localhost:3000/view")
	v.SetDefault("api.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.max_creates_per_ip_per_day", 200)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "greetcard")
	v.SetDefault("database.user", "greetcard")
	v.SetDefault("database.password", "greetcard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "greetcards")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("tokens.edit_token_ttl", 30*24*time.Hour)
	v.SetDefault("locale.default_language", "en")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("worker.concurrency", 2)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                       "API_PORT",
		"api.public_base_url":            "PUBLIC_BASE_URL",
		"api.viewer_base_url":            "VIEWER_BASE_URL",
		"api.allowed_origins":            "CORS_ALLOWED_ORIGINS",
		"api.max_creates_per_ip_per_day": "MAX_CREATES_PER_IP_PER_DAY",
		"api.metrics_token":              "METRICS_TOKEN",
		"database.host":                  "DATABASE_HOST",
		"database.port":                  "DATABASE_PORT",
		"database.name":                  "POSTGRES_DB",
		"database.user":                  "POSTGRES_USER",
		"database.password":              "POSTGRES_PASSWORD",
		"database.sslmode":               "DATABASE_SSLMODE",
		"redis.host":                     "REDIS_HOST",
		"redis.port":                     "REDIS_PORT",
		"minio.endpoint":                 "MINIO_ENDPOINT",
		"minio.access_key_id":            "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":        "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                  "MINIO_USE_SSL",
		"minio.bucket":                   "MINIO_BUCKET",
		"minio.region":                   "MINIO_REGION",
		"minio.public_endpoint":          "MINIO_PUBLIC_ENDPOINT",
		"minio.bucket_lookup":            "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":       "MINIO_AUTO_CREATE_BUCKET",
		"clamd.addr":                     "CLAMD_ADDR",
		"tokens.edit_token_secret":       "EDIT_TOKEN_SECRET",
		"tokens.edit_token_ttl":          "EDIT_TOKEN_TTL",
		"locale.default_language":        "DEFAULT_LANGUAGE",
		"log.level":                      "LOG_LEVEL",
		"log.format":                     "LOG_FORMAT",
		"log.file":                       "LOG_FILE",
		"log.max_size_mb":                "LOG_MAX_SIZE_MB",
		"log.max_backups":                "LOG_MAX_BACKUPS",
		"log.max_age_days":               "LOG_MAX_AGE_DAYS",
		"worker.concurrency":             "WORKER_CONCURRENCY",
		"worker.frontend_base_url":       "FRONTEND_BASE_URL",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.API.ViewerBaseURL == "" {
		return errors.New("viewer base url is required")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if len(cfg.Tokens.EditTokenSecret) < 16 {
		return errors.New("edit token secret must be at least 16 characters")
	}
	if cfg.Tokens.EditTokenTTL <= 0 {
		return errors.New("edit token ttl must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}
