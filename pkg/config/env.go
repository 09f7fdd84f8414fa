package config

const (
	EnvPrefix = "BAKELINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "BAKELINE_APP_ENV"
	EnvPort     = "BAKELINE_APP_PORT"
	EnvLogLevel = "BAKELINE_LOG_LEVEL"
	EnvTimezone = "BAKELINE_APP_TIMEZONE"
	EnvCORS     = "BAKELINE_CORS_ORIGINS"

	EnvDBDSN    = "BAKELINE_DB_DSN"
	EnvDBDriver = "BAKELINE_DB_DRIVER"
	EnvDBHost   = "BAKELINE_DB_HOST"
	EnvDBPort   = "BAKELINE_DB_PORT"
	EnvDBUser   = "BAKELINE_DB_USER"
	EnvDBName   = "BAKELINE_DB_NAME"

	EnvRedisURL = "BAKELINE_REDIS_URL"

	EnvSummaryCacheTTL = "BAKELINE_SUMMARY_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
