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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Shipping     ShippingConfig
	Pricing      PricingConfig
	Reservation  ReservationConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	GoogleMaps   GoogleMapsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAKEHOUSE_APP_ENV" required:"true"`
	Port         string `envconfig:"BAKEHOUSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAKEHOUSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAKEHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAKEHOUSE_DB_DSN"`
	Driver string `envconfig:"BAKEHOUSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAKEHOUSE_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKEHOUSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKEHOUSE_DB_USER"`
	LegacyPassword string `envconfig:"BAKEHOUSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKEHOUSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKEHOUSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAKEHOUSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAKEHOUSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAKEHOUSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKEHOUSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKEHOUSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAKEHOUSE_REDIS_ADDR"`
	Password     string        `envconfig:"BAKEHOUSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAKEHOUSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAKEHOUSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKEHOUSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKEHOUSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKEHOUSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKEHOUSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAKEHOUSE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAKEHOUSE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAKEHOUSE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAKEHOUSE_AUTO_MIGRATE" default:"false"`
}

// ShippingConfig carries the zone tier table. Distances are upper bounds in
// kilometers; the final tier has no bound. Fees and thresholds are cents.
type ShippingConfig struct {
	UrbanMaxKM        float64 `envconfig:"BAKEHOUSE_SHIPPING_URBAN_MAX_KM" default:"5"`
	MetroMaxKM        float64 `envconfig:"BAKEHOUSE_SHIPPING_METRO_MAX_KM" default:"15"`
	RegionalMaxKM     float64 `envconfig:"BAKEHOUSE_SHIPPING_REGIONAL_MAX_KM" default:"30"`
	IntercityMaxKM    float64 `envconfig:"BAKEHOUSE_SHIPPING_INTERCITY_MAX_KM" default:"60"`
	UrbanFeeCents     int64   `envconfig:"BAKEHOUSE_SHIPPING_URBAN_FEE_CENTS" default:"1500"`
	MetroFeeCents     int64   `envconfig:"BAKEHOUSE_SHIPPING_METRO_FEE_CENTS" default:"2500"`
	RegionalFeeCents  int64   `envconfig:"BAKEHOUSE_SHIPPING_REGIONAL_FEE_CENTS" default:"4000"`
	IntercityFeeCents int64   `envconfig:"BAKEHOUSE_SHIPPING_INTERCITY_FEE_CENTS" default:"6000"`
	RemoteFeeCents    int64   `envconfig:"BAKEHOUSE_SHIPPING_REMOTE_FEE_CENTS" default:"9000"`

	UrbanFreeThresholdCents     int64 `envconfig:"BAKEHOUSE_SHIPPING_URBAN_FREE_THRESHOLD_CENTS" default:"3500"`
	MetroFreeThresholdCents     int64 `envconfig:"BAKEHOUSE_SHIPPING_METRO_FREE_THRESHOLD_CENTS" default:"5000"`
	RegionalFreeThresholdCents  int64 `envconfig:"BAKEHOUSE_SHIPPING_REGIONAL_FREE_THRESHOLD_CENTS" default:"8000"`
	IntercityFreeThresholdCents int64 `envconfig:"BAKEHOUSE_SHIPPING_INTERCITY_FREE_THRESHOLD_CENTS" default:"12000"`
	RemoteFreeThresholdCents    int64 `envconfig:"BAKEHOUSE_SHIPPING_REMOTE_FREE_THRESHOLD_CENTS" default:"0"`

	UrbanETAMinutes     int `envconfig:"BAKEHOUSE_SHIPPING_URBAN_ETA_MINUTES" default:"45"`
	MetroETAMinutes     int `envconfig:"BAKEHOUSE_SHIPPING_METRO_ETA_MINUTES" default:"90"`
	RegionalETAMinutes  int `envconfig:"BAKEHOUSE_SHIPPING_REGIONAL_ETA_MINUTES" default:"180"`
	IntercityETAMinutes int `envconfig:"BAKEHOUSE_SHIPPING_INTERCITY_ETA_MINUTES" default:"360"`
	RemoteETAMinutes    int `envconfig:"BAKEHOUSE_SHIPPING_REMOTE_ETA_MINUTES" default:"1440"`
}

type PricingConfig struct {
	TaxBps            int `envconfig:"BAKEHOUSE_PRICING_TAX_BPS" default:"0"`
	LowStockThreshold int `envconfig:"BAKEHOUSE_PRICING_LOW_STOCK_THRESHOLD" default:"5"`
}

type ReservationConfig struct {
	TTL time.Duration `envconfig:"BAKEHOUSE_RESERVATION_TTL" default:"30m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BAKEHOUSE_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"BAKEHOUSE_CRON_LOCK_TTL" default:"10m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BAKEHOUSE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BAKEHOUSE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BAKEHOUSE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"BAKEHOUSE_GOOGLE_MAPS_API_KEY"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BAKEHOUSE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BAKEHOUSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BAKEHOUSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"BAKEHOUSE_PUBSUB_ORDERS_TOPIC" default:"bh-order-events"`
	OrdersSubscription string `envconfig:"BAKEHOUSE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
