package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreDriverFirestore = "firestore"
	StoreDriverSQL       = "sql"
)

// SQL dialects for the sql store
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Firebase  FirebaseConfig
	JWT       JWTConfig
	GenAI     GenAIConfig
	S3        S3Config
	Log       LogConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Driver string // firestore or sql
}

// DatabaseConfig holds database connection settings for the sql store
type DatabaseConfig struct {
	Dialect         string // postgres or sqlite
	Path            string // sqlite file path
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether Redis is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// FirebaseConfig holds Firebase project settings
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	AuthEnabled     bool // verify Firebase ID tokens instead of local JWTs
}

// JWTConfig holds settings for locally signed development tokens
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// GenAIConfig holds generative-language API settings
type GenAIConfig struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	ChatTemperature   float64
	ChatMaxTokens     int64
	ReportTemperature float64
	ReportMaxTokens   int64
}

// S3Config holds narrative archive settings. An empty Bucket disables archiving.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool // export zap logs over OTLP
	DBTraceEnabled    bool // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool // Log full SQL statements (dev only)
}

// Load loads configuration from .env files, TOML and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SMARTERP_ prefix (e.g., SMARTERP_DATABASE_PASSWORD)
// 2. .env.local, then .env (never override variables already set)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := loadDotEnv(".env.local", ".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smarterp")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SMARTERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
		},
		Database: DatabaseConfig{
			Dialect:         v.GetString("database.dialect"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       v.GetString("firebase.project_id"),
			CredentialsFile: v.GetString("firebase.credentials_file"),
			AuthEnabled:     v.GetBool("firebase.auth_enabled"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Issuer:     v.GetString("jwt.issuer"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		GenAI: GenAIConfig{
			APIKey:            firstNonEmpty(v.GetString("genai.api_key"), v.GetString("gemini_api_key")),
			Model:             v.GetString("genai.model"),
			Timeout:           v.GetDuration("genai.timeout"),
			ChatTemperature:   v.GetFloat64("genai.chat_temperature"),
			ChatMaxTokens:     v.GetInt64("genai.chat_max_tokens"),
			ReportTemperature: v.GetFloat64("genai.report_temperature"),
			ReportMaxTokens:   v.GetInt64("genai.report_max_tokens"),
		},
		S3: S3Config{
			Bucket:          v.GetString("s3.bucket"),
			Region:          v.GetString("s3.region"),
			Endpoint:        v.GetString("s3.endpoint"),
			AccessKeyID:     v.GetString("s3.access_key_id"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
			UsePathStyle:    v.GetBool("s3.use_path_style"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Swagger: SwaggerConfig{
			Enabled: v.GetBool("swagger.enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads each file that exists. Earlier files win, and variables
// already present in the environment are never overridden.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading %s: %w", f, err)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "smarterp"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreDriverSQL
	}
	if cfg.Database.Dialect == "" {
		cfg.Database.Dialect = DialectPostgres
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "smarterp.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "smarterp"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = defaultJWTSecret
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "smarterp"
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 12 * time.Hour
	}
	if cfg.GenAI.Model == "" {
		cfg.GenAI.Model = "gemini-2.0-flash-exp"
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 60 * time.Second
	}
	if cfg.GenAI.ChatTemperature == 0 {
		cfg.GenAI.ChatTemperature = 0.9
	}
	if cfg.GenAI.ChatMaxTokens == 0 {
		cfg.GenAI.ChatMaxTokens = 800
	}
	if cfg.GenAI.ReportTemperature == 0 {
		cfg.GenAI.ReportTemperature = 0.7
	}
	if cfg.GenAI.ReportMaxTokens == 0 {
		cfg.GenAI.ReportMaxTokens = 1500
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "eu-central-1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second // AI calls are slow
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "smarterp"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverFirestore, StoreDriverSQL:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", StoreDriverFirestore, StoreDriverSQL, c.Store.Driver)
	}

	switch c.Database.Dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return fmt.Errorf("database.dialect must be %q or %q, got %q", DialectPostgres, DialectSQLite, c.Database.Dialect)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Store.Driver == StoreDriverFirestore || c.Firebase.AuthEnabled {
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase.project_id is required when Firestore or Firebase Auth is used")
		}
	}

	if c.App.Env == "production" {
		if !c.Firebase.AuthEnabled {
			if c.JWT.Secret == defaultJWTSecret {
				return fmt.Errorf("jwt.secret must be changed in production")
			}
			if len(c.JWT.Secret) < 32 {
				return fmt.Errorf("jwt.secret must be at least 32 characters in production")
			}
		}
		if c.Store.Driver == StoreDriverSQL && c.Database.Dialect == DialectSQLite {
			return fmt.Errorf("database.dialect sqlite is for local development only")
		}
		if c.Store.Driver == StoreDriverSQL {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled {
			return fmt.Errorf("swagger must be disabled in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
