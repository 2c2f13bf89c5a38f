package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Session       SessionConfig
	Search        SearchConfig
	PriceHistory  PriceHistoryConfig
	OpenAI        OpenAIConfig
	ChatRateLimit ChatRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Session.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"CAMPAIGN_APP_ENV" required:"true"`
	Port            string        `envconfig:"CAMPAIGN_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"CAMPAIGN_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"CAMPAIGN_LOG_FORMAT" default:"json"`
	LogWarnStack    bool          `envconfig:"CAMPAIGN_LOG_WARN_STACK" default:"false"`
	CORSOrigins     []string      `envconfig:"CAMPAIGN_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:8501"`
	ShutdownTimeout time.Duration `envconfig:"CAMPAIGN_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RedisConfig is optional: an empty URL and address keeps every store in memory.
type RedisConfig struct {
	URL          string        `envconfig:"CAMPAIGN_REDIS_URL"`
	Address      string        `envconfig:"CAMPAIGN_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPAIGN_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPAIGN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPAIGN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPAIGN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPAIGN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPAIGN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPAIGN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	Store      string        `envconfig:"CAMPAIGN_SESSION_STORE" default:"memory"`
	TTL        time.Duration `envconfig:"CAMPAIGN_SESSION_TTL" default:"12h"`
	MaxHistory int           `envconfig:"CAMPAIGN_SESSION_MAX_HISTORY" default:"50"`
}

// UsesRedis reports whether sessions should be kept in Redis.
func (s SessionConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(s.Store), SessionStoreRedis)
}

func (s SessionConfig) validate(redis RedisConfig) error {
	switch strings.ToLower(strings.TrimSpace(s.Store)) {
	case SessionStoreMemory:
		return nil
	case SessionStoreRedis:
		if !redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvSessionStore, EnvRedisURL, EnvRedisAddr)
		}
		return nil
	default:
		return fmt.Errorf("%s must be one of %q or %q, got %q", EnvSessionStore, SessionStoreMemory, SessionStoreRedis, s.Store)
	}
}

type SearchConfig struct {
	APIKey   string        `envconfig:"CAMPAIGN_SERPAPI_API_KEY"`
	BaseURL  string        `envconfig:"CAMPAIGN_SERPAPI_BASE_URL" default:"https://serpapi.com"`
	Timeout  time.Duration `envconfig:"CAMPAIGN_SERPAPI_TIMEOUT" default:"30s"`
	Keyword  string        `envconfig:"CAMPAIGN_SEARCH_KEYWORD" default:"high protein peanut butter"`
	Category string        `envconfig:"CAMPAIGN_SEARCH_CATEGORY" default:"Peanut / Nut Butter"`
	MaxItems int           `envconfig:"CAMPAIGN_SEARCH_MAX_ITEMS" default:"20"`
}

type PriceHistoryConfig struct {
	APIKey  string        `envconfig:"CAMPAIGN_RAPIDAPI_KEY"`
	Host    string        `envconfig:"CAMPAIGN_RAPIDAPI_HOST" default:"amazon-price1.p.rapidapi.com"`
	Country string        `envconfig:"CAMPAIGN_RAPIDAPI_COUNTRY" default:"US"`
	Timeout time.Duration `envconfig:"CAMPAIGN_RAPIDAPI_TIMEOUT" default:"10s"`
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"CAMPAIGN_OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"CAMPAIGN_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"CAMPAIGN_OPENAI_MODEL" default:"gpt-4o-mini"`
	Temperature float64       `envconfig:"CAMPAIGN_OPENAI_TEMPERATURE" default:"0.1"`
	Timeout     time.Duration `envconfig:"CAMPAIGN_OPENAI_TIMEOUT" default:"60s"`
	MaxToolRuns int           `envconfig:"CAMPAIGN_OPENAI_MAX_TOOL_ROUNDS" default:"4"`
}

type ChatRateLimitConfig struct {
	Window time.Duration `envconfig:"CAMPAIGN_CHAT_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"CAMPAIGN_CHAT_RATE_LIMIT" default:"10"`
}
