package config

// EnvPrefix is passed to envconfig; individual fields carry fully prefixed tags.
const EnvPrefix = "toolcrib"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "TOOLCRIB_APP_ENV"
	EnvPort     = "TOOLCRIB_APP_PORT"
	EnvDBDSN    = "TOOLCRIB_DB_DSN"
	EnvDBHost   = "TOOLCRIB_DB_HOST"
	EnvDBUser   = "TOOLCRIB_DB_USER"
	EnvDBName   = "TOOLCRIB_DB_NAME"
	EnvRedisURL = "TOOLCRIB_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
