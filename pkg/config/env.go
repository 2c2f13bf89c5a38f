package config

const EnvPrefix = "CAMPAIGN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

const (
	EnvAppEnv   = "CAMPAIGN_APP_ENV"
	EnvPort     = "CAMPAIGN_APP_PORT"
	EnvLogLevel = "CAMPAIGN_LOG_LEVEL"
	EnvCORS     = "CAMPAIGN_CORS_ORIGINS"

	EnvRedisURL  = "CAMPAIGN_REDIS_URL"
	EnvRedisAddr = "CAMPAIGN_REDIS_ADDR"

	EnvSessionStore = "CAMPAIGN_SESSION_STORE"
	EnvSessionTTL   = "CAMPAIGN_SESSION_TTL"

	EnvSerpAPIKey     = "CAMPAIGN_SERPAPI_API_KEY"
	EnvSearchKeyword  = "CAMPAIGN_SEARCH_KEYWORD"
	EnvSearchMaxItems = "CAMPAIGN_SEARCH_MAX_ITEMS"
	EnvSerpAPITimeout = "CAMPAIGN_SERPAPI_TIMEOUT"

	EnvRapidAPIKey     = "CAMPAIGN_RAPIDAPI_KEY"
	EnvRapidAPITimeout = "CAMPAIGN_RAPIDAPI_TIMEOUT"

	EnvOpenAIKey   = "CAMPAIGN_OPENAI_API_KEY"
	EnvOpenAIModel = "CAMPAIGN_OPENAI_MODEL"
)
