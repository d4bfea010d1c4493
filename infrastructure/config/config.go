package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment names
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Config holds all application configuration
type Config struct {
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
	IsLambda    bool   `yaml:"lambda"`

	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Metadata      MetadataConfig      `yaml:"metadata"`
	Events        EventsConfig        `yaml:"events"`
	Observability ObservabilityConfig `yaml:"observability"`
	CORS          CORSConfig          `yaml:"cors"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// DatabaseConfig holds relational store settings
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	SlowThreshold   time.Duration `yaml:"slowThreshold"`
	LogQueries      bool          `yaml:"logQueries"`
	AutoMigrate     bool          `yaml:"autoMigrate"`
}

// AuthConfig holds bearer token and rate limit settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwtSecret"`
	JWTIssuer     string        `yaml:"jwtIssuer"`
	JWTAudience   []string      `yaml:"jwtAudience"`
	TokenExpiry   time.Duration `yaml:"tokenExpiry"`
	IPRateLimit   int           `yaml:"ipRateLimit"`
	UserRateLimit int           `yaml:"userRateLimit"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetadataConfig holds link preview fetch settings
type MetadataConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	UserAgent    string        `yaml:"userAgent"`

	// AllowPrivateNetworks lets previews reach loopback and private ranges
	AllowPrivateNetworks bool `yaml:"allowPrivateNetworks"`
}

// EventsConfig holds domain event publishing settings
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	BusName string `yaml:"busName"`
	Source  string `yaml:"source"`
	Region  string `yaml:"region"`
}

// ObservabilityConfig holds metrics and tracing settings
type ObservabilityConfig struct {
	EnableMetrics bool    `yaml:"enableMetrics"`
	EnableTracing bool    `yaml:"enableTracing"`
	ServiceName   string  `yaml:"serviceName"`
	OTLPEndpoint  string  `yaml:"otlpEndpoint"`
	SampleRate    float64 `yaml:"sampleRate"`
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Defaults returns the in-code configuration for env
func Defaults(env string) *Config {
	return &Config{
		Environment: env,
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "keepwise.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			SlowThreshold:   200 * time.Millisecond,
			AutoMigrate:     env == Development,
		},
		Auth: AuthConfig{
			JWTIssuer:     "keepwise",
			JWTAudience:   []string{"keepwise-api"},
			TokenExpiry:   24 * time.Hour,
			IPRateLimit:   120,
			UserRateLimit: 600,
		},
		Logging: LoggingConfig{Level: "info"},
		Metadata: MetadataConfig{
			Timeout:      10 * time.Second,
			MaxBodyBytes: 2 << 20,
		},
		Events: EventsConfig{
			BusName: "keepwise-events",
			Source:  "keepwise.memories",
			Region:  "us-east-1",
		},
		Observability: ObservabilityConfig{
			EnableMetrics: true,
			ServiceName:   "keepwise",
			OTLPEndpoint:  "localhost:4317",
			SampleRate:    1.0,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// LoadConfig loads configuration from CONFIG_DIR and the environment
func LoadConfig() (*Config, error) {
	return LoadFrom(getEnv("CONFIG_DIR", "config"), getEnv("ENVIRONMENT", Development))
}

// LoadFrom layers defaults, <dir>/base.yaml, <dir>/<env>.yaml, <dir>/local.yaml
// (development only) and finally environment variables.
func LoadFrom(dir, env string) (*Config, error) {
	env = strings.ToLower(env)
	cfg := Defaults(env)
	cfg.LoadedFrom = []string{"defaults"}

	files := []string{"base", env}
	if env == Development {
		files = append(files, "local")
	}
	for _, name := range files {
		path, err := loadFile(dir, name, cfg)
		if err != nil {
			return nil, err
		}
		if path != "" {
			cfg.LoadedFrom = append(cfg.LoadedFrom, path)
		}
	}
	// a file may not move us to another environment
	cfg.Environment = env

	applyEnvironment(cfg)
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FilePaths lists the files LoadFrom would read for env
func FilePaths(dir, env string) []string {
	names := []string{"base", strings.ToLower(env)}
	if strings.ToLower(env) == Development {
		names = append(names, "local")
	}
	var paths []string
	for _, name := range names {
		for _, ext := range []string{"yaml", "yml"} {
			paths = append(paths, filepath.Join(dir, name+"."+ext))
		}
	}
	return paths
}

func loadFile(dir, name string, cfg *Config) (string, error) {
	for _, ext := range []string{"yaml", "yml"} {
		path := filepath.Join(dir, name+"."+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

func applyEnvironment(cfg *Config) {
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.IsLambda = getEnvBool("IS_LAMBDA", cfg.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	cfg.Server.Address = getEnv("SERVER_ADDRESS", cfg.Server.Address)
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.MaxBodyBytes = int64(getEnvInt("SERVER_MAX_BODY_BYTES", int(cfg.Server.MaxBodyBytes)))

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)
	cfg.Database.LogQueries = getEnvBool("DB_LOG_QUERIES", cfg.Database.LogQueries)
	cfg.Database.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTIssuer = getEnv("JWT_ISSUER", cfg.Auth.JWTIssuer)
	cfg.Auth.JWTAudience = getEnvList("JWT_AUDIENCE", cfg.Auth.JWTAudience)
	cfg.Auth.TokenExpiry = getEnvDuration("TOKEN_EXPIRY", cfg.Auth.TokenExpiry)
	cfg.Auth.IPRateLimit = getEnvInt("RATE_LIMIT_IP_RPM", cfg.Auth.IPRateLimit)
	cfg.Auth.UserRateLimit = getEnvInt("RATE_LIMIT_USER_RPM", cfg.Auth.UserRateLimit)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)

	cfg.Metadata.Timeout = getEnvDuration("METADATA_TIMEOUT", cfg.Metadata.Timeout)
	cfg.Metadata.MaxBodyBytes = int64(getEnvInt("METADATA_MAX_BODY_BYTES", int(cfg.Metadata.MaxBodyBytes)))
	cfg.Metadata.UserAgent = getEnv("METADATA_USER_AGENT", cfg.Metadata.UserAgent)
	cfg.Metadata.AllowPrivateNetworks = getEnvBool("METADATA_ALLOW_PRIVATE_NETWORKS", cfg.Metadata.AllowPrivateNetworks)

	cfg.Events.Enabled = getEnvBool("ENABLE_EVENTS", cfg.Events.Enabled)
	cfg.Events.BusName = getEnv("EVENT_BUS_NAME", cfg.Events.BusName)
	cfg.Events.Region = getEnv("AWS_REGION", cfg.Events.Region)

	cfg.Observability.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.Observability.EnableMetrics)
	cfg.Observability.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.Observability.EnableTracing)
	cfg.Observability.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Observability.OTLPEndpoint)
	cfg.Observability.SampleRate = getEnvFloat("TRACE_SAMPLE_RATE", cfg.Observability.SampleRate)

	cfg.CORS.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Auth.IPRateLimit <= 0 || c.Auth.UserRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.maxBodyBytes must be positive")
	}
	if c.Metadata.Timeout <= 0 {
		return fmt.Errorf("metadata.timeout must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Events.Enabled && c.Events.BusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	return nil
}

// DevelopmentJWTSecret signs tokens outside production when JWT_SECRET is unset
const DevelopmentJWTSecret = "development-secret-change-in-production"

// SigningSecret returns the HMAC secret for bearer tokens
func (c *Config) SigningSecret() string {
	if c.Auth.JWTSecret == "" && !c.IsProduction() {
		return DevelopmentJWTSecret
	}
	return c.Auth.JWTSecret
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
