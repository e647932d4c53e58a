package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	Gemini GeminiConfig
	CORS   CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for the uploaded-document archive.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// GeminiConfig holds upstream generation settings. No API key: callers
// supply their own key per extraction request.
type GeminiConfig struct {
	DefaultModel string `mapstructure:"default_model"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the PLINVOICE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLINVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "plinvoice")
	v.SetDefault("db.password", "plinvoice_secret")
	v.SetDefault("db.name", "plinvoice_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "plinvoice-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Gemini defaults
	v.SetDefault("gemini.default_model", "gemini-2.5-flash")
	v.SetDefault("gemini.max_attempts", 5)
	v.SetDefault("gemini.timeout_secs", 120)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "PLINVOICE_SERVER_PORT",
		"server.read_timeout":  "PLINVOICE_SERVER_READ_TIMEOUT",
		"server.write_timeout": "PLINVOICE_SERVER_WRITE_TIMEOUT",
		"server.environment":   "PLINVOICE_SERVER_ENVIRONMENT",
		"db.host":              "PLINVOICE_DB_HOST",
		"db.port":              "PLINVOICE_DB_PORT",
		"db.user":              "PLINVOICE_DB_USER",
		"db.password":          "PLINVOICE_DB_PASSWORD",
		"db.name":              "PLINVOICE_DB_NAME",
		"db.sslmode":           "PLINVOICE_DB_SSLMODE",
		"db.max_open":          "PLINVOICE_DB_MAX_OPEN",
		"db.max_idle":          "PLINVOICE_DB_MAX_IDLE",
		"s3.region":            "PLINVOICE_S3_REGION",
		"s3.bucket":            "PLINVOICE_S3_BUCKET",
		"s3.endpoint":          "PLINVOICE_S3_ENDPOINT",
		"s3.access_key":        "PLINVOICE_S3_ACCESS_KEY",
		"s3.secret_key":        "PLINVOICE_S3_SECRET_KEY",
		"s3.max_file_size_mb":  "PLINVOICE_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":    "PLINVOICE_S3_PRESIGN_EXPIRY",
		"gemini.default_model": "PLINVOICE_GEMINI_DEFAULT_MODEL",
		"gemini.max_attempts":  "PLINVOICE_GEMINI_MAX_ATTEMPTS",
		"gemini.timeout_secs":  "PLINVOICE_GEMINI_TIMEOUT_SECS",
		"cors.allowed_origins": "PLINVOICE_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PLINVOICE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PLINVOICE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Gemini = GeminiConfig{
		DefaultModel: v.GetString("gemini.default_model"),
		MaxAttempts:  v.GetInt("gemini.max_attempts"),
		TimeoutSecs:  v.GetInt("gemini.timeout_secs"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
