package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
	Webhook  WebhookConfig
	Studio   StudioConfig
	Features FeatureFlagsConfig

	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"VIZBOOST_APP_ENV" required:"true"`
	Port         string `envconfig:"VIZBOOST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VIZBOOST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VIZBOOST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VIZBOOST_DB_DSN"`
	Driver string `envconfig:"VIZBOOST_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VIZBOOST_DB_HOST"`
	Port     int    `envconfig:"VIZBOOST_DB_PORT" default:"5432"`
	User     string `envconfig:"VIZBOOST_DB_USER"`
	Password string `envconfig:"VIZBOOST_DB_PASSWORD"`
	Name     string `envconfig:"VIZBOOST_DB_NAME"`
	SSLMode  string `envconfig:"VIZBOOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VIZBOOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VIZBOOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VIZBOOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIZBOOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VIZBOOST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VIZBOOST_REDIS_ADDR"`
	Password     string        `envconfig:"VIZBOOST_REDIS_PASSWORD"`
	DB           int           `envconfig:"VIZBOOST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VIZBOOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIZBOOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIZBOOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIZBOOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIZBOOST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VIZBOOST_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VIZBOOST_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VIZBOOST_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VIZBOOST_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VIZBOOST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VIZBOOST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VIZBOOST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VIZBOOST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VIZBOOST_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey string `envconfig:"VIZBOOST_STRIPE_API_KEY"`
	Secret string `envconfig:"VIZBOOST_STRIPE_SECRET"`
	Env    string `envconfig:"VIZBOOST_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	BaseURL        string        `envconfig:"VIZBOOST_CHECKOUT_BASE_URL" default:"http://localhost:3000"`
	SessionTimeout time.Duration `envconfig:"VIZBOOST_CHECKOUT_SESSION_TIMEOUT" default:"15s"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"VIZBOOST_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type StudioConfig struct {
	ProviderURL     string        `envconfig:"VIZBOOST_STUDIO_PROVIDER_URL"`
	ProviderAPIKey  string        `envconfig:"VIZBOOST_STUDIO_PROVIDER_API_KEY"`
	ProviderTimeout time.Duration `envconfig:"VIZBOOST_STUDIO_PROVIDER_TIMEOUT" default:"60s"`
	RenderCost      int           `envconfig:"VIZBOOST_STUDIO_RENDER_COST" default:"1"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VIZBOOST_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"VIZBOOST_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"VIZBOOST_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"VIZBOOST_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"VIZBOOST_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"VIZBOOST_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VIZBOOST_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"VIZBOOST_SEED_CATALOG" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discrete := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discrete[env] == "" {
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
