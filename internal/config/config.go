package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the running application.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8080"
}

// AuthConfig configures the JWT boundary.
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"`
	TokenTTL  int    `yaml:"tokenTTL"` // token lifetime in seconds
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MinIOConfig holds the MinIO object storage settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfigs groups every backing store the service talks to.
type DatabaseConfigs struct {
	MySQL MySQLConfig `yaml:"mysql"`
	MinIO MinIOConfig `yaml:"minio"`
	Redis RedisConfig `yaml:"redis"`
}

// ArchiveConfig tunes the document archive itself.
type ArchiveConfig struct {
	MaxUploadBytes int64 `yaml:"maxUploadBytes"` // per-file upload size cap
	SheetCacheTTL  int   `yaml:"sheetCacheTTL"`  // seconds a cached sheet listing stays valid
}

// CleanupConfig configures the orphaned-blob reaper.
type CleanupConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"` // e.g. "168h" for weekly sweeps
}

// RateLimiterConfig configures the token bucket guarding the upload route.
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// MiddlewareConfig groups middleware settings.
type MiddlewareConfig struct {
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"`
}

// AppConfig is the root structure of the YAML configuration file. It is
// constructed once at startup and passed by reference; nothing in the
// codebase reads configuration from ambient globals.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	Auth       AuthConfig       `yaml:"auth"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}
	return &cfg, nil
}
