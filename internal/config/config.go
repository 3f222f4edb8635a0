// Package config provides unified configuration loading for the translation hub.
// Supports YAML files, .env files, environment variables and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the hub.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Uploads       UploadsConfig       `yaml:"uploads"`
	Bindings      BindingsConfig      `yaml:"bindings"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Translation   TranslationConfig   `yaml:"translation"`
	Conversion    ConversionConfig    `yaml:"conversion"`
	Corrections   CorrectionsConfig   `yaml:"corrections"`
	Cache         CacheConfig         `yaml:"cache"`
	HTTPClient    HTTPClientConfig    `yaml:"http_client"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// UploadsConfig controls where incoming files are spooled.
type UploadsConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// BindingsConfig points at the service-binding document holding credentials.
type BindingsConfig struct {
	Path string `yaml:"path"`
}

// ExtractionConfig holds job submission and polling settings.
type ExtractionConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
	ClientID     string        `yaml:"client_id"`
	DocumentType string        `yaml:"document_type"`
	SchemaName   string        `yaml:"schema_name"`
}

// TranslationConfig holds document translation settings.
type TranslationConfig struct {
	// Endpoint is used with the sandbox API key. With an OAuth2 binding the
	// binding base URL plus Path is used instead.
	Endpoint      string `yaml:"endpoint"`
	Path          string `yaml:"path"`
	SourceLang    string `yaml:"source_lang"`
	TargetLang    string `yaml:"target_lang"`
	StrictMode    bool   `yaml:"strict_mode"`
	Model         string `yaml:"model"`
	SandboxAPIKey string `yaml:"sandbox_api_key"`
}

// ConversionConfig holds the external PDF conversion API settings.
type ConversionConfig struct {
	BaseURL   string `yaml:"base_url"`
	PublicKey string `yaml:"public_key"`
	Tool      string `yaml:"tool"`
}

// CorrectionsConfig locates the correction history file.
type CorrectionsConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig holds job result cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	TLS      bool   `yaml:"tls"`
}

// HTTPClientConfig holds outbound HTTP settings.
type HTTPClientConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Bindings.Path != "" {
			cfg.Bindings.Path = ResolveRelativePath(path, cfg.Bindings.Path)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             4000,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   110 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"*"},
		},
		Uploads: UploadsConfig{
			Dir:      filepath.Join(os.TempDir(), "docai-hub-uploads"),
			MaxBytes: 32 << 20,
		},
		Bindings: BindingsConfig{
			Path: "default-env.json",
		},
		Extraction: ExtractionConfig{
			PollInterval: time.Second,
			MaxAttempts:  40,
			ClientID:     "c_00",
			DocumentType: "invoice",
			SchemaName:   "SAP_invoice_schema",
		},
		Translation: TranslationConfig{
			Endpoint:   "https://sandbox.api.sap.com/sapdocumenttranslation/translation",
			Path:       "/api/v1/translation",
			SourceLang: "en-US",
			TargetLang: "es-ES",
			StrictMode: false,
			Model:      "llm",
		},
		Conversion: ConversionConfig{
			BaseURL: "https://api.ilovepdf.com",
			Tool:    "officepdf",
		},
		Corrections: CorrectionsConfig{
			Path: "corrections.json",
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        30 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		HTTPClient: HTTPClientConfig{
			Timeout:    45 * time.Second,
			MaxRetries: 3,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "docai-hub",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Extraction.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	if c.Extraction.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.HTTPClient.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads dir is required")
	}

	if c.Corrections.Path == "" {
		return fmt.Errorf("corrections path is required")
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if v := os.Getenv(key); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.Server.Port = port
			}
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DEFAULT_ENV_PATH"); v != "" {
		cfg.Bindings.Path = v
	}

	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		cfg.Uploads.Dir = v
	}

	if v := os.Getenv("CORRECTIONS_FILE"); v != "" {
		cfg.Corrections.Path = v
	}

	// Both spellings appear in service-binding documents.
	for _, key := range []string{"SANDBOX_API_KEY", "SANDBOX-API-KEY"} {
		if v := os.Getenv(key); v != "" {
			cfg.Translation.SandboxAPIKey = v
		}
	}

	if v := os.Getenv("TRANSLATION_ENDPOINT"); v != "" {
		cfg.Translation.Endpoint = v
	}

	if v := os.Getenv("CONVERSION_PUBLIC_KEY"); v != "" {
		cfg.Conversion.PublicKey = v
	}

	if v := os.Getenv("CONVERSION_BASE_URL"); v != "" {
		cfg.Conversion.BaseURL = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		opts, err := redis.ParseURL(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = opts.Addr
		cfg.Cache.Redis.Username = opts.Username
		cfg.Cache.Redis.Password = opts.Password
		cfg.Cache.Redis.DB = opts.DB
		cfg.Cache.Redis.TLS = opts.TLSConfig != nil
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
