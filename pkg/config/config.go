package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STORELANE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STORELANE_DB_DSN"
	EnvDBHost = "STORELANE_DB_HOST"
	EnvDBUser = "STORELANE_DB_USER"
	EnvDBName = "STORELANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Scheduler    SchedulerConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Shipping     ShippingConfig
	Payment      PaymentConfig
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
	Env          string `envconfig:"STORELANE_APP_ENV" required:"true"`
	Port         string `envconfig:"STORELANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORELANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORELANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STORELANE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STORELANE_DB_DSN"`
	Driver string `envconfig:"STORELANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORELANE_DB_HOST"`
	LegacyPort     int    `envconfig:"STORELANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORELANE_DB_USER"`
	LegacyPassword string `envconfig:"STORELANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORELANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORELANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORELANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORELANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORELANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORELANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORELANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORELANE_REDIS_ADDR"`
	Password     string        `envconfig:"STORELANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORELANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORELANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORELANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORELANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORELANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORELANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STORELANE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STORELANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STORELANE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STORELANE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STORELANE_AUTO_MIGRATE" default:"false"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `envconfig:"STORELANE_SCHEDULER_SWEEP_INTERVAL" default:"1m"`
	SweepLockTTL  time.Duration `envconfig:"STORELANE_SCHEDULER_SWEEP_LOCK_TTL" default:"5m"`
	FireTimeout   time.Duration `envconfig:"STORELANE_SCHEDULER_FIRE_TIMEOUT" default:"30s"`
	RecoverAtBoot bool          `envconfig:"STORELANE_SCHEDULER_RECOVER_AT_BOOT" default:"true"`
	NotifyTimeout time.Duration `envconfig:"STORELANE_NOTIFY_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STORELANE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STORELANE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STORELANE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"STORELANE_PUBSUB_NOTIFICATION_TOPIC" default:"sl-notification-events"`
}

type ShippingConfig struct {
	BaseURL string        `envconfig:"STORELANE_SHIPPING_BASE_URL"`
	Token   string        `envconfig:"STORELANE_SHIPPING_TOKEN"`
	ShopID  string        `envconfig:"STORELANE_SHIPPING_SHOP_ID"`
	Timeout time.Duration `envconfig:"STORELANE_SHIPPING_TIMEOUT" default:"10s"`
}

type PaymentConfig struct {
	MerchantCode string `envconfig:"STORELANE_PAYMENT_MERCHANT_CODE"`
	HashSecret   string `envconfig:"STORELANE_PAYMENT_HASH_SECRET"`
	ReturnURL    string `envconfig:"STORELANE_PAYMENT_RETURN_URL"`
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
