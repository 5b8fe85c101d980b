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
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig

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
	Env          string `envconfig:"MARKETLOFT_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETLOFT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETLOFT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETLOFT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETLOFT_DB_DSN"`
	Driver string `envconfig:"MARKETLOFT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETLOFT_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETLOFT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETLOFT_DB_USER"`
	LegacyPassword string `envconfig:"MARKETLOFT_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETLOFT_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETLOFT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETLOFT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETLOFT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETLOFT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETLOFT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETLOFT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETLOFT_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETLOFT_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETLOFT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETLOFT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETLOFT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETLOFT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETLOFT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETLOFT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MARKETLOFT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MARKETLOFT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MARKETLOFT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MARKETLOFT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKETLOFT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKETLOFT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKETLOFT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKETLOFT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKETLOFT_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MARKETLOFT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MARKETLOFT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARKETLOFT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MARKETLOFT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARKETLOFT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"MARKETLOFT_PUBSUB_EVENTS_TOPIC" default:"ml-storefront-events"`
	EventsSubscription string `envconfig:"MARKETLOFT_PUBSUB_EVENTS_SUBSCRIPTION" default:"ml-storefront-events-analytics"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"MARKETLOFT_BIGQUERY_DATASET" default:"marketloft"`
	EventsTable string `envconfig:"MARKETLOFT_BIGQUERY_EVENTS_TABLE" default:"storefront_events"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARKETLOFT_AUTH_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"MARKETLOFT_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"MARKETLOFT_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"MARKETLOFT_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"MARKETLOFT_AUTH_RL_REGISTER_IP_LIMIT" default:"30"`
	RegisterEmailLimit int           `envconfig:"MARKETLOFT_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MARKETLOFT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MARKETLOFT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MARKETLOFT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"MARKETLOFT_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
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
