// Package config 提供配置加载功能
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// envPlaceholder 匹配 ${VAR} 或 ${VAR:default}
// g1: 变量名, g2: 默认值部分（含冒号）, g3: 默认值内容
var envPlaceholder = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 从 CONFIG_DIR (默认 configs) 加载配置
func Load() (*Config, error) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		dir = "configs"
	}
	return LoadFrom(dir)
}

// LoadFrom 按优先级加载：默认配置 -> 环境配置 -> 环境变量 -> 内置默认值
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验启动所必需的配置项
func (c *Config) Validate() error {
	var errs []error
	if c.Security.JWT.Secret == "" {
		errs = append(errs, errors.New("security.jwt.secret is required"))
	}
	if _, ok := c.Quota.Plans["free"]; !ok {
		errs = append(errs, errors.New("quota.plans.free is required"))
	}
	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.Limit <= 0 || c.Security.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("security.rate_limit.limit and window must be positive"))
		}
		switch c.Security.RateLimit.Backend {
		case "memory", "redis":
		default:
			errs = append(errs, fmt.Errorf("security.rate_limit.backend %q is not supported", c.Security.RateLimit.Backend))
		}
	}
	return errors.Join(errs...)
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		v.SetConfigFile(path)
		return nil
	}
	if err := v.MergeConfig(reader); err != nil {
		return fmt.Errorf("failed to merge processed config %s: %w", path, err)
	}
	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值的变量保留原样
func expandEnv(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPlaceholder.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(submatch[1]); ok {
			return val
		}
		if submatch[2] != "" {
			return submatch[3]
		}
		return match
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "storyforge-ai-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "120s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.shutdown_timeout", "30s")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "storyforge")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")
	v.SetDefault("database.postgres.slow_threshold", "200ms")

	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 50)
	v.SetDefault("cache.redis.min_idle_conns", 5)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.image.provider", "gemini")
	v.SetDefault("llm.image.model", "imagen-3.0-generate-002")
	v.SetDefault("llm.image.timeout", "90s")
	v.SetDefault("llm.retry.max_attempts", 3)
	v.SetDefault("llm.retry.initial", "1s")
	v.SetDefault("llm.retry.max", "8s")
	v.SetDefault("llm.retry.multiplier", 2.0)
	v.SetDefault("llm.breaker.consecutive_failures", 5)
	v.SetDefault("llm.breaker.open_timeout", "30s")
	v.SetDefault("llm.breaker.interval", "60s")

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.insecure", true)
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("security.jwt.issuer", "storyforge")
	v.SetDefault("security.jwt.expiration", "24h")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.backend", "memory")
	v.SetDefault("security.rate_limit.limit", 20)
	v.SetDefault("security.rate_limit.window", "60s")
	v.SetDefault("security.rate_limit.key_prefix", "ratelimit:chat:")
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})

	setPlanDefault(v, "free", "Free", 10000, 5, 3, 0, 0)
	setPlanDefault(v, "hobby", "Hobby", 100000, 25, 10, 499, 4990)
	setPlanDefault(v, "pro", "Pro", 500000, 100, 50, 1499, 14990)
	setPlanDefault(v, "admin", "Admin", -1, -1, -1, 0, 0)

	v.SetDefault("quota.pricing", []map[string]any{
		{"model": "default", "input": 0.000075, "output": 0.0003},
		{"model": "gemini-2.0-flash", "input": 0.000075, "output": 0.0003},
		{"model": "gemini-1.5-flash", "input": 0.000075, "output": 0.0003},
		{"model": "gemini-1.5-pro", "input": 0.00125, "output": 0.005},
		{"model": "gpt-4o-mini", "input": 0.00015, "output": 0.0006},
		{"model": "gpt-4o", "input": 0.0025, "output": 0.01},
	})
	v.SetDefault("bootstrap.admin_email", "admin@storyforge.local")
	v.SetDefault("bootstrap.admin_name", "System Admin")

	v.SetDefault("quota.reset.interval", "0s")
	v.SetDefault("quota.reset.batch_size", 500)

	v.SetDefault("payment.razorpay.base_url", "https://api.razorpay.com")
	v.SetDefault("payment.razorpay.order_ttl", "168h")
}

func setPlanDefault(v *viper.Viper, id, name string, tokens, images, projects int64, monthly, yearly float64) {
	prefix := "quota.plans." + id + "."
	v.SetDefault(prefix+"name", name)
	v.SetDefault(prefix+"token_limit", tokens)
	v.SetDefault(prefix+"image_limit", images)
	v.SetDefault(prefix+"max_projects", projects)
	v.SetDefault(prefix+"monthly_price", monthly)
	v.SetDefault(prefix+"yearly_price", yearly)
	v.SetDefault(prefix+"currency", "INR")
}
