package config

// EnvPrefix is passed to envconfig; individual fields carry full names so the
// prefix only matters for ad-hoc lookups.
const EnvPrefix = "BAKEHOUSE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Canonical env var names, shared with tests.
const (
	EnvAppEnv       = "BAKEHOUSE_APP_ENV"
	EnvPort         = "BAKEHOUSE_APP_PORT"
	EnvDBDSN        = "BAKEHOUSE_DB_DSN"
	EnvDBHost       = "BAKEHOUSE_DB_HOST"
	EnvDBUser       = "BAKEHOUSE_DB_USER"
	EnvDBName       = "BAKEHOUSE_DB_NAME"
	EnvRedisURL     = "BAKEHOUSE_REDIS_URL"
	EnvJWTSecret    = "BAKEHOUSE_JWT_SECRET"
	EnvJWTIssuer    = "BAKEHOUSE_JWT_ISSUER"
	EnvJWTExpMins   = "BAKEHOUSE_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID = "BAKEHOUSE_GCP_PROJECT_ID"
	EnvOrdersTopic  = "BAKEHOUSE_PUBSUB_ORDERS_TOPIC"
	EnvOrdersSub    = "BAKEHOUSE_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
