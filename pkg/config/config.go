package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Board    BoardConfig
	Portal   PortalConfig
	Ingest   IngestConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BoardConfig tunes due-date resolution and schedule caching.
type BoardConfig struct {
	DefaultDueInterval int
	HorizonDays        int
	Timezone           string
	ScheduleCacheTTL   time.Duration
}

// PortalConfig holds credentials and browser settings for the school portal
// scraper.
type PortalConfig struct {
	BaseURL           string
	Username          string
	Password          string
	Headless          bool
	NavigationTimeout time.Duration
	SessionDir        string
}

// IngestConfig bounds the scrape-sync worker pool. Parallelism exists only to
// respect the store's rate limits, so the defaults stay small.
type IngestConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Board = BoardConfig{
		DefaultDueInterval: v.GetInt("BOARD_DEFAULT_DUE_INTERVAL"),
		HorizonDays:        v.GetInt("BOARD_HORIZON_DAYS"),
		Timezone:           v.GetString("BOARD_TIMEZONE"),
		ScheduleCacheTTL:   parseDuration(v.GetString("BOARD_SCHEDULE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Portal = PortalConfig{
		BaseURL:           v.GetString("PORTAL_BASE_URL"),
		Username:          v.GetString("PORTAL_USERNAME"),
		Password:          v.GetString("PORTAL_PASSWORD"),
		Headless:          v.GetBool("PORTAL_HEADLESS"),
		NavigationTimeout: parseDuration(v.GetString("PORTAL_NAV_TIMEOUT"), 30*time.Second),
		SessionDir:        v.GetString("PORTAL_SESSION_DIR"),
	}

	cfg.Ingest = IngestConfig{
		Workers:    v.GetInt("INGEST_WORKERS"),
		MaxRetries: v.GetInt("INGEST_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("INGEST_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "quest_board")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "quest-board-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOARD_DEFAULT_DUE_INTERVAL", 7)
	v.SetDefault("BOARD_HORIZON_DAYS", 14)
	v.SetDefault("BOARD_TIMEZONE", "Europe/Helsinki")
	v.SetDefault("BOARD_SCHEDULE_CACHE_TTL", "10m")

	v.SetDefault("PORTAL_BASE_URL", "")
	v.SetDefault("PORTAL_USERNAME", "")
	v.SetDefault("PORTAL_PASSWORD", "")
	v.SetDefault("PORTAL_HEADLESS", true)
	v.SetDefault("PORTAL_NAV_TIMEOUT", "30s")
	v.SetDefault("PORTAL_SESSION_DIR", "./.portal-session")

	v.SetDefault("INGEST_WORKERS", 2)
	v.SetDefault("INGEST_MAX_RETRIES", 3)
	v.SetDefault("INGEST_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
