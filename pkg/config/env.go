package config

const (
	EnvPrefix = "SWEETDELIGHTS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "SWEETDELIGHTS_APP_ENV"
	EnvPort   = "SWEETDELIGHTS_APP_PORT"

	EnvDBDSN  = "SWEETDELIGHTS_DB_DSN"
	EnvDBHost = "SWEETDELIGHTS_DB_HOST"
	EnvDBUser = "SWEETDELIGHTS_DB_USER"
	EnvDBName = "SWEETDELIGHTS_DB_NAME"

	EnvRedisURL  = "SWEETDELIGHTS_REDIS_URL"
	EnvJWTSecret = "SWEETDELIGHTS_JWT_SECRET"
	EnvJWTIssuer = "SWEETDELIGHTS_JWT_ISSUER"

	EnvUseSQLite      = "SWEETDELIGHTS_USE_SQLITE"
	EnvCurrencySymbol = "SWEETDELIGHTS_CURRENCY_SYMBOL"
	EnvGuestCartTTL   = "SWEETDELIGHTS_GUEST_CART_TTL"

	EnvGCPProjectID      = "SWEETDELIGHTS_GCP_PROJECT_ID"
	EnvGCSBucket         = "SWEETDELIGHTS_GCS_BUCKET_NAME"
	EnvPubSubDomainTopic = "SWEETDELIGHTS_PUBSUB_DOMAIN_TOPIC"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
