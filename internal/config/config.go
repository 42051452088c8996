// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密钥、密码）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test" // 测试环境（集成测试 + E2E 共用）
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Limits    LimitsConfig    `yaml:"limits"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
// Driver 支持 mongodb / postgres / sqlite；
// URI 非空时直接使用，否则由 Host/Port/User/Name 拼装
type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	URI     string `yaml:"uri"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Name    string `yaml:"name"`
	SSLMode string `yaml:"sslmode"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DB      int    `yaml:"db"`
}

type MinIOConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	UseSSL   bool   `yaml:"use_ssl"`
}

// Duration 支持 "15m" / "24h" 形式的 YAML 时长字段
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// AuthConfig 认证配置，秘钥只从环境变量读取
type AuthConfig struct {
	TokenTTL Duration `yaml:"token_ttl"`
	OTPTTL   Duration `yaml:"otp_ttl"`
}

// RateLimitConfig 认证端点限流配置
type RateLimitConfig struct {
	Max    int      `yaml:"max"`
	Window Duration `yaml:"window"`
}

// RateLimitSettings 限流最终配置
type RateLimitSettings struct {
	Max    int
	Window time.Duration
}

// LimitsConfig 各类列表/批量操作上限
type LimitsConfig struct {
	BulkMax              int `yaml:"bulk_max"`
	ListMax              int `yaml:"list_max"`
	ActivityLimitDefault int `yaml:"activity_limit_default"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env          Environment
	APIPort      string
	Driver       string
	DatabaseURI  string
	DatabaseName string // mongodb 驱动使用（postgres/sqlite 的库名在 URI 里）
	RedisURL     string // 为空时使用进程内限流
	MinIO        MinIOSettings
	Auth         AuthSettings
	RateLimit    RateLimitSettings
	Limits       LimitsConfig
}

// MinIOSettings MinIO 最终配置，凭据来自环境变量
type MinIOSettings struct {
	Enabled   bool
	Endpoint  string
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Bucket    string
	UseSSL    bool
}

// AuthSettings 认证最终配置
type AuthSettings struct {
	JWTSecret     string `json:"-"`
	TokenTTL      time.Duration
	OTPTTL        time.Duration
	AdminEmail    string `json:"-"`
	AdminPassword string `json:"-"`
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖，构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 构建最终配置
	cfg := &Config{
		Env:          env,
		APIPort:      getEnv("API_PORT", yamlCfg.Server.Port),
		Driver:       getEnv("DB_DRIVER", yamlCfg.Database.Driver),
		DatabaseURI:  resolveDatabaseURI(yamlCfg.Database),
		DatabaseName: getEnv("DB_NAME", yamlCfg.Database.Name),
		RedisURL:     resolveRedisURL(yamlCfg.Redis),
		MinIO: MinIOSettings{
			Enabled:   yamlCfg.MinIO.Enabled || os.Getenv("MINIO_ENDPOINT") != "",
			Endpoint:  getEnv("MINIO_ENDPOINT", yamlCfg.MinIO.Endpoint),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", yamlCfg.MinIO.Bucket),
			UseSSL:    yamlCfg.MinIO.UseSSL,
		},
		Auth: AuthSettings{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTL:      time.Duration(yamlCfg.Auth.TokenTTL),
			OTPTTL:        time.Duration(yamlCfg.Auth.OTPTTL),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		RateLimit: RateLimitSettings{
			Max:    yamlCfg.RateLimit.Max,
			Window: time.Duration(yamlCfg.RateLimit.Window),
		},
		Limits: yamlCfg.Limits,
	}

	// 环境变量覆盖限流参数
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Max = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RateLimit.Window = d
		}
	}

	cfg.applyDefaults()
	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:    ServerConfig{Port: "8080"},
		Database:  DatabaseConfig{Driver: "mongodb", Host: "localhost", Port: 27017, Name: "recipe_admin", SSLMode: "disable"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		MinIO:     MinIOConfig{Endpoint: "localhost:9000", Bucket: "recipe-images"},
		Auth:      AuthConfig{TokenTTL: Duration(24 * time.Hour), OTPTTL: Duration(5 * time.Minute)},
		RateLimit: RateLimitConfig{Max: 20, Window: Duration(15 * time.Minute)},
		Limits:    LimitsConfig{BulkMax: 100, ListMax: 100, ActivityLimitDefault: 20},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// resolveDatabaseURI 解析数据库连接串
// 优先级：DATABASE_URI 环境变量 > yaml uri > 按字段拼装
func resolveDatabaseURI(db DatabaseConfig) string {
	if uri := os.Getenv("DATABASE_URI"); uri != "" {
		return uri
	}
	if db.URI != "" {
		return db.URI
	}

	driver := getEnv("DB_DRIVER", db.Driver)
	switch driver {
	case "postgres":
		password := os.Getenv("DB_PASSWORD")
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			db.User, password, db.Host, db.Port, db.Name, db.SSLMode)
	case "sqlite":
		return fmt.Sprintf("file:%s.db?cache=shared&mode=rwc", db.Name)
	default:
		return fmt.Sprintf("mongodb://%s:%d", db.Host, db.Port)
	}
}

// resolveRedisURL 解析 Redis 连接串，未启用时返回空
func resolveRedisURL(r RedisConfig) string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}
	if !r.Enabled {
		return ""
	}
	return fmt.Sprintf("redis://%s:%d/%d", r.Host, r.Port, r.DB)
}

// applyDefaults 填充零值字段
func (c *Config) applyDefaults() {
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.OTPTTL == 0 {
		c.Auth.OTPTTL = 5 * time.Minute
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 20
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 15 * time.Minute
	}
	if c.Limits.BulkMax == 0 {
		c.Limits.BulkMax = 100
	}
	if c.Limits.ListMax == 0 {
		c.Limits.ListMax = 100
	}
	if c.Limits.ActivityLimitDefault == 0 {
		c.Limits.ActivityLimitDefault = 20
	}
	if c.Driver == "" {
		c.Driver = "mongodb"
	}
}

// Validate 校验必填项，缺失时返回错误（JWT 密钥缺失必须拒绝启动）
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Driver {
	case "mongodb", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
	return nil
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// IsDev 是否为开发环境（OTP 验证码会打到日志）
func (c *Config) IsDev() bool {
	return c.Env == EnvDevelopment
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Redis: %s}",
		c.Env, c.Driver, maskPassword(c.DatabaseURI), c.RedisURL)
}

// maskPassword 隐藏密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
