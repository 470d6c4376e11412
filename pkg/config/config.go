package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 CONSOLE_BACKEND_BASE_URL
const EnvPrefix = "CONSOLE"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Backend     BackendConfig     `mapstructure:"backend"`
	Uploader    string            `mapstructure:"uploader"` // backend | storage
	Storage     StorageConfig     `mapstructure:"storage"`
	Compression CompressionConfig `mapstructure:"compression"`
	Session     SessionConfig     `mapstructure:"session"`
	Geo         GeoConfig         `mapstructure:"geo"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // gin: debug | release | test
	MaxUploadMiB int64  `mapstructure:"max_upload_mib"`
}

type BackendConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UploadPath  string        `mapstructure:"upload_path"`
	UploadField string        `mapstructure:"upload_field"`
	ListingPath string        `mapstructure:"listing_path"`
	GeoPath     string        `mapstructure:"geo_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryCount  int           `mapstructure:"retry_count"`
	ProxyURL    string        `mapstructure:"proxy_url"`
	Debug       bool          `mapstructure:"debug"`
}

type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3 | cos | local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	CDNDomain string `mapstructure:"cdn_domain"`
	BasePath  string `mapstructure:"base_path"`
}

type CompressionConfig struct {
	MaxBytes       int  `mapstructure:"max_bytes"`
	MaxDimension   uint `mapstructure:"max_dimension"`
	InitialQuality int  `mapstructure:"initial_quality"`
	MinQuality     int  `mapstructure:"min_quality"`
	QualityStep    int  `mapstructure:"quality_step"`
}

type SessionConfig struct {
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	SweepSpec      string        `mapstructure:"sweep_spec"` // cron 表达式
	SubmitCooldown time.Duration `mapstructure:"submit_cooldown"`
}

type GeoConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	DSN    string `mapstructure:"dsn"`
	LogSQL bool   `mapstructure:"log_sql"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_mib", 32)

	v.SetDefault("backend.base_url", "http://localhost:9000")
	v.SetDefault("backend.upload_path", "/api/uploads")
	v.SetDefault("backend.upload_field", "files")
	v.SetDefault("backend.listing_path", "/api/listings")
	v.SetDefault("backend.geo_path", "/api/geo")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.retry_count", 2)
	v.SetDefault("backend.proxy_url", "")
	v.SetDefault("backend.debug", false)

	v.SetDefault("uploader", "backend")

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.cdn_domain", "")
	v.SetDefault("storage.base_path", "./uploads")

	v.SetDefault("compression.max_bytes", 1<<20)
	v.SetDefault("compression.max_dimension", 1920)
	v.SetDefault("compression.initial_quality", 85)
	v.SetDefault("compression.min_quality", 40)
	v.SetDefault("compression.quality_step", 10)

	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.sweep_spec", "*/5 * * * *")
	v.SetDefault("session.submit_cooldown", "3s")

	v.SetDefault("geo.cache_ttl", "6h")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=lodging_console port=5432 sslmode=disable TimeZone=Asia/Kathmandu")
	v.SetDefault("database.log_sql", false)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load 加载配置：默认值 < YAML 配置文件 < 环境变量
// envFile 为空时尝试当前目录的 .env，不存在不报错
func Load(configFile, envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
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

func loadDotEnv(envFile string) error {
	if envFile == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("加载 .env 失败: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("加载 %s 失败: %w", envFile, err)
	}
	return nil
}

// Validate 启动前检查
func (c *Config) Validate() error {
	switch c.Uploader {
	case "backend", "storage":
	default:
		return fmt.Errorf("uploader 只能是 backend 或 storage: %q", c.Uploader)
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.base_url 不能为空")
	}
	if c.Session.IdleTTL <= 0 {
		return errors.New("session.idle_ttl 必须大于 0")
	}
	return nil
}
