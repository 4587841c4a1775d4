package config

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "VIZBOOST"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "VIZBOOST_APP_ENV"
	EnvPort      = "VIZBOOST_APP_PORT"
	EnvDBDSN     = "VIZBOOST_DB_DSN"
	EnvDBHost    = "VIZBOOST_DB_HOST"
	EnvDBUser    = "VIZBOOST_DB_USER"
	EnvDBName    = "VIZBOOST_DB_NAME"
	EnvRedisURL  = "VIZBOOST_REDIS_URL"
	EnvJWTSecret = "VIZBOOST_JWT_SECRET"
	EnvJWTIssuer = "VIZBOOST_JWT_ISSUER"
	EnvJWTExpMin = "VIZBOOST_JWT_EXPIRATION_MINUTES"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
