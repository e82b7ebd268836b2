package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Payments      PaymentsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"KIVA_APP_ENV" required:"true"`
	Port         string `envconfig:"KIVA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KIVA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KIVA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KIVA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KIVA_DB_DSN"`
	Driver string `envconfig:"KIVA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KIVA_DB_HOST"`
	LegacyPort     int    `envconfig:"KIVA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KIVA_DB_USER"`
	LegacyPassword string `envconfig:"KIVA_DB_PASSWORD"`
	LegacyName     string `envconfig:"KIVA_DB_NAME"`
	LegacySSLMode  string `envconfig:"KIVA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KIVA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KIVA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KIVA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KIVA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KIVA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KIVA_REDIS_ADDR"`
	Password     string        `envconfig:"KIVA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KIVA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KIVA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KIVA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KIVA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KIVA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KIVA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KIVA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KIVA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"KIVA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"KIVA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KIVA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KIVA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KIVA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KIVA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KIVA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KIVA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"KIVA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"KIVA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"KIVA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"KIVA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"KIVA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KIVA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KIVA_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig carries the flat shipping fee and tax rate applied to every order.
type CheckoutConfig struct {
	ShippingFee string `envconfig:"KIVA_CHECKOUT_SHIPPING_FEE" default:"50"`
	TaxRate     string `envconfig:"KIVA_CHECKOUT_TAX_RATE" default:"0.18"`
}

// ShippingFeeAmount parses the configured flat shipping fee.
func (c CheckoutConfig) ShippingFeeAmount() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.ShippingFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing shipping fee: %w", err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("shipping fee must be non-negative")
	}
	return fee, nil
}

// TaxRateFraction parses the configured tax rate as a fraction of the subtotal.
func (c CheckoutConfig) TaxRateFraction() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("tax rate must be within [0, 1]")
	}
	return rate, nil
}

type PaymentsConfig struct {
	BaseURL       string `envconfig:"KIVA_PAYMENTS_BASE_URL" default:"https://api.razorpay.com/v1"`
	KeyID         string `envconfig:"KIVA_PAYMENTS_KEY_ID"`
	KeySecret     string `envconfig:"KIVA_PAYMENTS_KEY_SECRET"`
	WebhookSecret string `envconfig:"KIVA_PAYMENTS_WEBHOOK_SECRET"`
	Currency      string `envconfig:"KIVA_PAYMENTS_CURRENCY" default:"INR"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KIVA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"KIVA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KIVA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"KIVA_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"KIVA_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"KIVA_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
	MaxUploadMB       int           `envconfig:"KIVA_GCS_MAX_UPLOAD_MB" default:"200"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"KIVA_PUBSUB_ORDERS_TOPIC" default:"kiva-order-events"`
	OrdersSubscription string `envconfig:"KIVA_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"KIVA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"KIVA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"KIVA_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
