// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
	Quota         QuotaConfig         `yaml:"quota" mapstructure:"quota"`
	Payment       PaymentConfig       `yaml:"payment" mapstructure:"payment"`
	Bootstrap     BootstrapConfig     `yaml:"bootstrap" mapstructure:"bootstrap"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" mapstructure:"slow_threshold"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider" mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	FallbackChain   []string                  `yaml:"fallback_chain" mapstructure:"fallback_chain"`
	Image           ImageConfig               `yaml:"image" mapstructure:"image"`
	Retry           RetryConfig               `yaml:"retry" mapstructure:"retry"`
	Breaker         BreakerConfig             `yaml:"breaker" mapstructure:"breaker"`
}

// ProviderConfig LLM 提供商配置
type ProviderConfig struct {
	// Kind 提供商实现：openai 兼容接口或 gemini
	Kind        string        `yaml:"kind" mapstructure:"kind"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ImageConfig 分镜图片生成配置
type ImageConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RetryConfig 限流重试配置 (仅对上游 429 生效)
type RetryConfig struct {
	MaxAttempts uint          `yaml:"max_attempts" mapstructure:"max_attempts"`
	Initial     time.Duration `yaml:"initial" mapstructure:"initial"`
	Max         time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier  float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
	Interval            time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT       JWTConfig       `yaml:"jwt" mapstructure:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// JWTConfig 会话令牌配置
type JWTConfig struct {
	Secret     string        `yaml:"secret" mapstructure:"secret"`
	Issuer     string        `yaml:"issuer" mapstructure:"issuer"`
	Expiration time.Duration `yaml:"expiration" mapstructure:"expiration"`
}

// RateLimitConfig 固定窗口限流配置
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Backend memory 为进程内计数，redis 为多实例共享计数
	Backend   string        `yaml:"backend" mapstructure:"backend"`
	Limit     int           `yaml:"limit" mapstructure:"limit"`
	Window    time.Duration `yaml:"window" mapstructure:"window"`
	KeyPrefix string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// QuotaConfig 配额与计费配置
type QuotaConfig struct {
	Plans   map[string]PlanConfig `yaml:"plans" mapstructure:"plans"`
	Pricing []PricingConfig       `yaml:"pricing" mapstructure:"pricing"`
	Reset   ResetConfig           `yaml:"reset" mapstructure:"reset"`
}

// PlanConfig 订阅计划额度，负数表示不限
type PlanConfig struct {
	Name         string  `yaml:"name" mapstructure:"name"`
	TokenLimit   int64   `yaml:"token_limit" mapstructure:"token_limit"`
	ImageLimit   int64   `yaml:"image_limit" mapstructure:"image_limit"`
	MaxProjects  int64   `yaml:"max_projects" mapstructure:"max_projects"`
	MonthlyPrice float64 `yaml:"monthly_price" mapstructure:"monthly_price"`
	YearlyPrice  float64 `yaml:"yearly_price" mapstructure:"yearly_price"`
	Currency     string  `yaml:"currency" mapstructure:"currency"`
}

// PricingConfig 模型单价 (每 1K tokens，美元)
// 模型名含 "."，与 viper 键分隔符冲突，因此使用列表而非 map
type PricingConfig struct {
	Model  string  `yaml:"model" mapstructure:"model"`
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// ResetConfig 月度用量重置任务配置
type ResetConfig struct {
	// Interval 为 0 时只执行一次
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
	BatchSize int           `yaml:"batch_size" mapstructure:"batch_size"`
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	Razorpay RazorpayConfig `yaml:"razorpay" mapstructure:"razorpay"`
}

// RazorpayConfig Razorpay 配置
type RazorpayConfig struct {
	KeyID     string `yaml:"key_id" mapstructure:"key_id"`
	KeySecret string `yaml:"key_secret" mapstructure:"key_secret"`
	// BaseURL 为空时使用 https://api.razorpay.com
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// OrderTTL 待支付订单在 Redis 中的保留时间
	OrderTTL time.Duration `yaml:"order_ttl" mapstructure:"order_ttl"`
}

// BootstrapConfig 初始化配置
type BootstrapConfig struct {
	AdminEmail string `yaml:"admin_email" mapstructure:"admin_email"`
	AdminName  string `yaml:"admin_name" mapstructure:"admin_name"`
}
