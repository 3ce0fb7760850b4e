// Package config loads runtime settings from an optional YAML file, a .env
// file and PESTICIDE_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pesticide-analytics/internal/analytics"
)

const envPrefix = "PESTICIDE_"

// Source drivers understood by the dataset loader.
const (
	DriverCSV      = "csv"
	DriverParquet  = "parquet"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Source   SourceConfig   `yaml:"source"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SourceConfig selects where the dataset is loaded from.
type SourceConfig struct {
	Driver string   `yaml:"driver"`
	Path   string   `yaml:"path"`
	Table  string   `yaml:"table"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Key             string `yaml:"key"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// AnalysisConfig carries the tunables of the view aggregations.
type AnalysisConfig struct {
	FocusCountry  string  `yaml:"focus_country"`
	TotalType     string  `yaml:"total_type"`
	RecentYears   int     `yaml:"recent_years"`
	IQRMultiplier float64 `yaml:"iqr_multiplier"`
}

// Options converts the settings for the analytics package.
func (a AnalysisConfig) Options() analytics.Options {
	return analytics.Options{
		TotalType:     a.TotalType,
		RecentYears:   a.RecentYears,
		IQRMultiplier: a.IQRMultiplier,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "pesticide",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: SourceConfig{
			Driver: DriverCSV,
			Path:   "data/pesticides.csv",
			Table:  "pesticide_use",
		},
		Analysis: AnalysisConfig{
			FocusCountry:  "South Africa",
			TotalType:     "Pesticides (total)",
			RecentYears:   5,
			IQRMultiplier: 1.5,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// PESTICIDE_CONFIG, a .env file in the working directory and the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("SERVER_HOST", &c.Server.Host)
	e.int("SERVER_PORT", &c.Server.Port)
	e.duration("SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	e.duration("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout)
	e.duration("SERVER_IDLE_TIMEOUT", &c.Server.IdleTimeout)

	e.str("DB_HOST", &c.Database.Host)
	e.int("DB_PORT", &c.Database.Port)
	e.str("DB_USER", &c.Database.User)
	e.str("DB_PASSWORD", &c.Database.Password)
	e.str("DB_NAME", &c.Database.Database)
	e.str("DB_SSLMODE", &c.Database.SSLMode)
	e.int("DB_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	e.int("DB_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)
	e.duration("DB_CONN_MAX_LIFETIME", &c.Database.ConnMaxLifetime)
	e.duration("DB_CONN_MAX_IDLE_TIME", &c.Database.ConnMaxIdleTime)

	e.str("LOG_LEVEL", &c.Logging.Level)
	e.str("LOG_FORMAT", &c.Logging.Format)

	e.str("SOURCE_DRIVER", &c.Source.Driver)
	e.str("SOURCE_PATH", &c.Source.Path)
	e.str("SOURCE_TABLE", &c.Source.Table)
	e.str("S3_BUCKET", &c.Source.S3.Bucket)
	e.str("S3_KEY", &c.Source.S3.Key)
	e.str("S3_REGION", &c.Source.S3.Region)
	e.str("S3_ENDPOINT", &c.Source.S3.Endpoint)
	e.bool("S3_PATH_STYLE", &c.Source.S3.PathStyle)
	e.str("S3_ACCESS_KEY_ID", &c.Source.S3.AccessKeyID)
	e.str("S3_SECRET_ACCESS_KEY", &c.Source.S3.SecretAccessKey)

	e.str("FOCUS_COUNTRY", &c.Analysis.FocusCountry)
	e.str("TOTAL_TYPE", &c.Analysis.TotalType)
	e.int("RECENT_YEARS", &c.Analysis.RecentYears)
	e.float("IQR_MULTIPLIER", &c.Analysis.IQRMultiplier)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(envPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = n
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = f
}

func (e *envReader) bool(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = d
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json, text or console, got %q", c.Logging.Format))
	}

	switch c.Source.Driver {
	case DriverCSV, DriverParquet:
		if c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source.path is required for driver %s", c.Source.Driver))
		}
	case DriverSQLite:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for driver sqlite"))
		}
		if c.Source.Table == "" {
			errs = append(errs, errors.New("source.table is required for driver sqlite"))
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("database.host and database.database are required for driver postgres"))
		}
		if c.Source.Table == "" {
			errs = append(errs, errors.New("source.table is required for driver postgres"))
		}
	case DriverS3:
		if c.Source.S3.Bucket == "" || c.Source.S3.Key == "" {
			errs = append(errs, errors.New("source.s3.bucket and source.s3.key are required for driver s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.driver %q", c.Source.Driver))
	}

	if c.Analysis.RecentYears < 1 {
		errs = append(errs, fmt.Errorf("analysis.recent_years must be positive, got %d", c.Analysis.RecentYears))
	}
	if c.Analysis.IQRMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("analysis.iqr_multiplier must be positive, got %g", c.Analysis.IQRMultiplier))
	}
	if c.Analysis.TotalType == "" {
		errs = append(errs, errors.New("analysis.total_type is required"))
	}

	return errors.Join(errs...)
}
