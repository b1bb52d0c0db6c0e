package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BIZLEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "BIZLEDGER_APP_ENV"
	EnvPort                   = "BIZLEDGER_APP_PORT"
	EnvDBDSN                  = "BIZLEDGER_DB_DSN"
	EnvDBHost                 = "BIZLEDGER_DB_HOST"
	EnvDBUser                 = "BIZLEDGER_DB_USER"
	EnvDBName                 = "BIZLEDGER_DB_NAME"
	EnvRedisURL               = "BIZLEDGER_REDIS_URL"
	EnvJWTSecret              = "BIZLEDGER_JWT_SECRET"
	EnvJWTIssuer              = "BIZLEDGER_JWT_ISSUER"
	EnvJWTExpMins             = "BIZLEDGER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BIZLEDGER_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cron          CronConfig
	Metrics       MetricsConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"BIZLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"BIZLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIZLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIZLEDGER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BIZLEDGER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BIZLEDGER_DB_DSN"`
	Driver string `envconfig:"BIZLEDGER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIZLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"BIZLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIZLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"BIZLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIZLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIZLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIZLEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIZLEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIZLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIZLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIZLEDGER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BIZLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"BIZLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIZLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIZLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIZLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIZLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIZLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIZLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BIZLEDGER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BIZLEDGER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BIZLEDGER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BIZLEDGER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BIZLEDGER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BIZLEDGER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BIZLEDGER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BIZLEDGER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BIZLEDGER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BIZLEDGER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BIZLEDGER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BIZLEDGER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BIZLEDGER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BIZLEDGER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BIZLEDGER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BIZLEDGER_AUTO_MIGRATE" default:"false"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"BIZLEDGER_CRON_INTERVAL" default:"24h"`
	NotificationRetentionDays int           `envconfig:"BIZLEDGER_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"BIZLEDGER_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"BIZLEDGER_METRICS_PATH" default:"/metrics"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BIZLEDGER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
