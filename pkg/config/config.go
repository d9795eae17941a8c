package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Storefront   StorefrontConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Housekeeping HousekeepingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SWEETDELIGHTS_APP_ENV" required:"true"`
	Port         string `envconfig:"SWEETDELIGHTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWEETDELIGHTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWEETDELIGHTS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"SWEETDELIGHTS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SWEETDELIGHTS_DB_DSN"`
	Driver string `envconfig:"SWEETDELIGHTS_DB_DRIVER" default:"postgres"`

	// SQLitePath is used instead of DSN when FeatureFlags.UseSQLite is set.
	SQLitePath string `envconfig:"SWEETDELIGHTS_SQLITE_PATH" default:"file:sweetdelights.db?cache=shared"`

	Host     string `envconfig:"SWEETDELIGHTS_DB_HOST"`
	Port     int    `envconfig:"SWEETDELIGHTS_DB_PORT" default:"5432"`
	User     string `envconfig:"SWEETDELIGHTS_DB_USER"`
	Password string `envconfig:"SWEETDELIGHTS_DB_PASSWORD"`
	Name     string `envconfig:"SWEETDELIGHTS_DB_NAME"`
	SSLMode  string `envconfig:"SWEETDELIGHTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWEETDELIGHTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWEETDELIGHTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWEETDELIGHTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWEETDELIGHTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWEETDELIGHTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWEETDELIGHTS_REDIS_ADDR"`
	Password     string        `envconfig:"SWEETDELIGHTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWEETDELIGHTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWEETDELIGHTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWEETDELIGHTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWEETDELIGHTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWEETDELIGHTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWEETDELIGHTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SWEETDELIGHTS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SWEETDELIGHTS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SWEETDELIGHTS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SWEETDELIGHTS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SWEETDELIGHTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SWEETDELIGHTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SWEETDELIGHTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SWEETDELIGHTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SWEETDELIGHTS_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SWEETDELIGHTS_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"SWEETDELIGHTS_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"SWEETDELIGHTS_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	EnquiryWindow   time.Duration `envconfig:"SWEETDELIGHTS_RATE_LIMIT_ENQUIRY_WINDOW" default:"10m"`
	EnquiryIPLimit  int           `envconfig:"SWEETDELIGHTS_RATE_LIMIT_ENQUIRY_IP_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite          bool `envconfig:"SWEETDELIGHTS_USE_SQLITE" default:"false"`
	AutoMigrate        bool `envconfig:"SWEETDELIGHTS_AUTO_MIGRATE" default:"false"`
	AllowAdminRegister bool `envconfig:"SWEETDELIGHTS_ALLOW_ADMIN_REGISTER" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SWEETDELIGHTS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// StorefrontConfig holds the customer facing knobs of the shop.
type StorefrontConfig struct {
	CurrencySymbol  string        `envconfig:"SWEETDELIGHTS_CURRENCY_SYMBOL" default:"₹"`
	DefaultImageURL string        `envconfig:"SWEETDELIGHTS_DEFAULT_IMAGE_URL" default:"https://images.unsplash.com/photo-1578985545062-69928b1d9587"`
	GuestCartTTL    time.Duration `envconfig:"SWEETDELIGHTS_GUEST_CART_TTL" default:"720h"`
	CORSOrigins     []string      `envconfig:"SWEETDELIGHTS_CORS_ORIGINS" default:"*"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SWEETDELIGHTS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SWEETDELIGHTS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SWEETDELIGHTS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"SWEETDELIGHTS_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"SWEETDELIGHTS_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"SWEETDELIGHTS_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts MaxUploadMB into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"SWEETDELIGHTS_PUBSUB_DOMAIN_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"SWEETDELIGHTS_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"sd-notifications-sub"`
	AnalyticsSubscription    string `envconfig:"SWEETDELIGHTS_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"sd-analytics-sub"`
}

type BigQueryConfig struct {
	Dataset      string `envconfig:"SWEETDELIGHTS_BIGQUERY_DATASET" default:"sweetdelights"`
	SalesTable   string `envconfig:"SWEETDELIGHTS_BIGQUERY_SALES_TABLE" default:"order_sales"`
	EnquiryTable string `envconfig:"SWEETDELIGHTS_BIGQUERY_ENQUIRY_TABLE" default:"enquiries"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SWEETDELIGHTS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SWEETDELIGHTS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SWEETDELIGHTS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

type HousekeepingConfig struct {
	Interval                  time.Duration `envconfig:"SWEETDELIGHTS_HOUSEKEEPING_INTERVAL" default:"6h"`
	NotificationRetentionDays int           `envconfig:"SWEETDELIGHTS_HOUSEKEEPING_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"SWEETDELIGHTS_HOUSEKEEPING_OUTBOX_RETENTION_DAYS" default:"14"`
}
