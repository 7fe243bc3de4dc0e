package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	AMQP      AMQPConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	// TxRetries bounds how often a transaction aborted by a serialization
	// failure or deadlock is replayed.
	TxRetries int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	UserTokenTTLMinutes     int
	TerminalTokenTTLMinutes int
	CustomerTokenTTLMinutes int
	BcryptCost              int
}

// RateLimitConfig throttles login attempts per login key.
type RateLimitConfig struct {
	Enabled       bool
	LoginAttempts int
	Window        time.Duration
	Prefix        string
}

// AMQPConfig configures auth event fan-out. An empty URL disables it.
type AMQPConfig struct {
	URL   string
	Queue string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given dotenv file first. An empty
// path falls back to ./.env.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	window, err := time.ParseDuration(getEnv("LOGIN_RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT_WINDOW: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "pos-core"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
			TxRetries:      getEnvAsInt("DB_TX_RETRIES", 3),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			UserTokenTTLMinutes:     getEnvAsInt("AUTH_USER_TOKEN_TTL_MINUTES", 60*12),
			TerminalTokenTTLMinutes: getEnvAsInt("AUTH_TERMINAL_TOKEN_TTL_MINUTES", 60*24*14),
			CustomerTokenTTLMinutes: getEnvAsInt("AUTH_CUSTOMER_TOKEN_TTL_MINUTES", 60*24),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("LOGIN_RATE_LIMIT_ENABLED", true),
			LoginAttempts: getEnvAsInt("LOGIN_RATE_LIMIT_ATTEMPTS", 10),
			Window:        window,
			Prefix:        getEnv("LOGIN_RATE_LIMIT_PREFIX", "login"),
		},
		AMQP: AMQPConfig{
			URL:   os.Getenv("AMQP_URL"),
			Queue: getEnv("AMQP_AUTH_EVENTS_QUEUE", "auth.events"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
