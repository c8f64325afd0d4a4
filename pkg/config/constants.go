package config

// EnvPrefix is passed to envconfig; variable names carry the full prefix in
// their struct tags so this stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "LOCALSPOT_APP_ENV"
	EnvPort   = "LOCALSPOT_APP_PORT"

	EnvDBDSN  = "LOCALSPOT_DB_DSN"
	EnvDBHost = "LOCALSPOT_DB_HOST"
	EnvDBUser = "LOCALSPOT_DB_USER"
	EnvDBName = "LOCALSPOT_DB_NAME"

	EnvRedisURL = "LOCALSPOT_REDIS_URL"

	EnvClerkSecretKey     = "LOCALSPOT_CLERK_SECRET_KEY"
	EnvClerkWebhookSecret = "LOCALSPOT_CLERK_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
