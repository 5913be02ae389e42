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
	Uploads  UploadsConfig
	Scan     ScanConfig
	Mailer   MailerConfig
	Notify   NotifyConfig
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

// UploadsConfig controls document storage, validation, and retention.
type UploadsConfig struct {
	StorageDir        string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	RetentionWindow   time.Duration
	SweepInterval     time.Duration
}

// ScanConfig configures the virus-scan collaborator and its worker pool.
type ScanConfig struct {
	Address        string
	Timeout        time.Duration
	Workers        int
	MaxRetries     int
	RetryBaseDelay time.Duration
	ScanStatusTTL  time.Duration
}

// MailerConfig holds SMTP delivery settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NotifyConfig tunes the outbound notification worker.
type NotifyConfig struct {
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

	maxFileSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:        v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes:  maxFileSize,
		AllowedExtensions: splitAndTrim(v.GetString("UPLOADS_ALLOWED_EXTENSIONS")),
		SignedURLSecret:   v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 30*time.Minute),
		RetentionWindow:   parseDuration(v.GetString("UPLOADS_RETENTION_WINDOW"), 720*time.Hour),
		SweepInterval:     parseDuration(v.GetString("UPLOADS_SWEEP_INTERVAL"), time.Hour),
	}

	cfg.Scan = ScanConfig{
		Address:        v.GetString("CLAMAV_ADDRESS"),
		Timeout:        parseDuration(v.GetString("CLAMAV_TIMEOUT"), 30*time.Second),
		Workers:        v.GetInt("SCAN_WORKER_CONCURRENCY"),
		MaxRetries:     v.GetInt("SCAN_MAX_RETRIES"),
		RetryBaseDelay: parseDuration(v.GetString("SCAN_RETRY_BASE_DELAY"), time.Minute),
		ScanStatusTTL:  parseDuration(v.GetString("SCAN_STATUS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Mailer = MailerConfig{
		Host:     v.GetString("SMTP_HOST"),
		Port:     v.GetInt("SMTP_PORT"),
		Username: v.GetString("SMTP_USERNAME"),
		Password: v.GetString("SMTP_PASSWORD"),
		From:     v.GetString("SMTP_FROM"),
	}

	cfg.Notify = NotifyConfig{
		Workers:    v.GetInt("NOTIFY_WORKER_CONCURRENCY"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), time.Minute),
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
	v.SetDefault("DB_NAME", "ideation_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "ideation-portal")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_EXTENSIONS", "pdf,doc,docx,xls,xlsx,ppt,pptx,txt,jpg,jpeg,png")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "30m")
	v.SetDefault("UPLOADS_RETENTION_WINDOW", "720h")
	v.SetDefault("UPLOADS_SWEEP_INTERVAL", "1h")

	v.SetDefault("CLAMAV_ADDRESS", "localhost:3310")
	v.SetDefault("CLAMAV_TIMEOUT", "30s")
	v.SetDefault("SCAN_WORKER_CONCURRENCY", 2)
	v.SetDefault("SCAN_MAX_RETRIES", 3)
	v.SetDefault("SCAN_RETRY_BASE_DELAY", "1m")
	v.SetDefault("SCAN_STATUS_CACHE_TTL", "30s")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "Ideation Portal <no-reply@ideation-portal.local>")

	v.SetDefault("NOTIFY_WORKER_CONCURRENCY", 1)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "1m")
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
