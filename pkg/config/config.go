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
	Clerk        ClerkConfig
	Gate         GateConfig
	Cache        CacheConfig
	ClaimsSync   ClaimsSyncConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"LOCALSPOT_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCALSPOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCALSPOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCALSPOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOCALSPOT_DB_DSN"`
	Driver string `envconfig:"LOCALSPOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCALSPOT_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCALSPOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCALSPOT_DB_USER"`
	LegacyPassword string `envconfig:"LOCALSPOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCALSPOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCALSPOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCALSPOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCALSPOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCALSPOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCALSPOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCALSPOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCALSPOT_REDIS_ADDR"`
	Password     string        `envconfig:"LOCALSPOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCALSPOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCALSPOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCALSPOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCALSPOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCALSPOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCALSPOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ClerkConfig carries the identity-provider credentials. The webhook secret and
// the backend API key are request-time fatal when absent, so both are required
// at startup instead.
type ClerkConfig struct {
	SecretKey        string        `envconfig:"LOCALSPOT_CLERK_SECRET_KEY" required:"true"`
	WebhookSecret    string        `envconfig:"LOCALSPOT_CLERK_WEBHOOK_SECRET" required:"true"`
	WebhookTolerance time.Duration `envconfig:"LOCALSPOT_CLERK_WEBHOOK_TOLERANCE" default:"5m"`
	APIBaseURL       string        `envconfig:"LOCALSPOT_CLERK_API_BASE_URL" default:"https://api.clerk.com/v1"`
	JWTPublicKeyPEM  string        `envconfig:"LOCALSPOT_CLERK_JWT_PUBLIC_KEY"`
	JWTIssuer        string        `envconfig:"LOCALSPOT_CLERK_JWT_ISSUER"`
	RequestTimeout   time.Duration `envconfig:"LOCALSPOT_CLERK_REQUEST_TIMEOUT" default:"10s"`
}

type GateConfig struct {
	SignInPath    string `envconfig:"LOCALSPOT_GATE_SIGN_IN_PATH" default:"/sign-in"`
	DashboardPath string `envconfig:"LOCALSPOT_GATE_DASHBOARD_PATH" default:"/dashboard"`
}

type CacheConfig struct {
	UserTTL time.Duration `envconfig:"LOCALSPOT_CACHE_USER_TTL" default:"5m"`
}

type ClaimsSyncConfig struct {
	BatchSize      int           `envconfig:"LOCALSPOT_CLAIMS_SYNC_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"LOCALSPOT_CLAIMS_SYNC_POLL_INTERVAL" default:"30s"`
	MaxAttempts    int           `envconfig:"LOCALSPOT_CLAIMS_SYNC_MAX_ATTEMPTS" default:"10"`
	RequestTimeout time.Duration `envconfig:"LOCALSPOT_CLAIMS_SYNC_REQUEST_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOCALSPOT_AUTO_MIGRATE" default:"false"`
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
