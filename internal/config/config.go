package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. store_driver -> TINYLINK_STORE_DRIVER.
const EnvPrefix = "TINYLINK"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	BaseURL         string        // public prefix for short links (ex: https://sho.rt)
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, store calls included

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreDriver string // postgres | sqlite | redis | memory

	// SQL
	DatabaseURL     string // postgres DSN
	SQLiteDSN       string // file path, "file:..." DSN or libsql:// URL
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Startup connection retry, shared by every backend
	ConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries, grows exponentially
	MaxWait        time.Duration // cap between retries
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // warn for this many attempts, then log errors

	// Redis
	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int
	RedisDT       time.Duration // dial timeout
	RedisRT       time.Duration // read timeout
	RedisWT       time.Duration // write timeout
	RedisPoolSize int

	SeedFile     string        // optional YAML file of links to ensure on start
	SeedInterval time.Duration // 0 => apply once at start

	AllowedCIDRS []string // restricts /readyz and seed reload (e.g. "10.0.0.0/8, 127.0.0.1")
	TrustProxy   bool     // true => trust X-Forwarded-For and friends
}

var defaults = map[string]any{
	"listen_port":      ":8080",
	"base_url":         "http://localhost:8080",
	"shutdown_timeout": "5s",
	"request_timeout":  "5s",

	"log_level":  "info",
	"pretty_log": true,

	"store_driver": DriverSQLite,

	"database_url":         "",
	"sqlite_dsn":           "file:tinylink.db",
	"db_max_open_conns":    10,
	"db_max_idle_conns":    5,
	"db_conn_max_lifetime": "30m",

	"connect_timeout": "30s",
	"retry_interval":  "2s",
	"max_wait":        "10s",
	"ping_timeout":    "5s",
	"warn_threshold":  3,

	"redis_addr":          "localhost:6379",
	"redis_username":      "",
	"redis_password":      "",
	"redis_db":            0,
	"redis_dial_timeout":  "5s",
	"redis_read_timeout":  "3s",
	"redis_write_timeout": "3s",
	"redis_pool_size":     10,

	"seed_file":     "",
	"seed_interval": "0s",

	"allowed_cidrs": "",
	"trust_proxy":   false,
}

// Load resolves configuration from, lowest to highest precedence: defaults,
// the YAML file at path (or TINYLINK_CONFIG_FILE), a .env file in the working
// directory, and TINYLINK_* environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path == "" {
		path = v.GetString("config_file")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	var errs []error
	dur := func(key string) time.Duration {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := &Config{
		ListenPort:      v.GetString("listen_port"),
		BaseURL:         strings.TrimRight(v.GetString("base_url"), "/"),
		ShutdownTimeout: dur("shutdown_timeout"),
		RequestTimeout:  dur("request_timeout"),

		LogLevel:  strings.ToLower(v.GetString("log_level")),
		PrettyLog: v.GetBool("pretty_log"),

		StoreDriver: strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),

		DatabaseURL:     v.GetString("database_url"),
		SQLiteDSN:       v.GetString("sqlite_dsn"),
		MaxOpenConns:    v.GetInt("db_max_open_conns"),
		MaxIdleConns:    v.GetInt("db_max_idle_conns"),
		ConnMaxLifetime: dur("db_conn_max_lifetime"),

		ConnectTimeout: dur("connect_timeout"),
		RetryInterval:  dur("retry_interval"),
		MaxWait:        dur("max_wait"),
		PingTimeout:    dur("ping_timeout"),
		WarnThreshold:  v.GetInt("warn_threshold"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisUser:     v.GetString("redis_username"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		RedisDT:       dur("redis_dial_timeout"),
		RedisRT:       dur("redis_read_timeout"),
		RedisWT:       dur("redis_write_timeout"),
		RedisPoolSize: v.GetInt("redis_pool_size"),

		SeedFile:     v.GetString("seed_file"),
		SeedInterval: dur("seed_interval"),

		AllowedCIDRS: stringList(v, "allowed_cidrs"),
		TrustProxy:   v.GetBool("trust_proxy"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// Validate checks cross-field rules that defaults can't express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database_url is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLiteDSN == "" {
			errs = append(errs, errors.New("sqlite_dsn is required for the sqlite driver"))
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr is required for the redis driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store_driver %q", c.StoreDriver))
	}

	positive := map[string]time.Duration{
		"shutdown_timeout": c.ShutdownTimeout,
		"request_timeout":  c.RequestTimeout,
		"connect_timeout":  c.ConnectTimeout,
		"retry_interval":   c.RetryInterval,
		"max_wait":         c.MaxWait,
		"ping_timeout":     c.PingTimeout,
	}
	for key, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", key, d))
		}
	}
	if c.SeedInterval < 0 {
		errs = append(errs, fmt.Errorf("seed_interval must be >= 0, got %v", c.SeedInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***REDACTED***"
	}
	if c.DatabaseURL != "" {
		c.DatabaseURL = "***REDACTED***"
	}
	return c
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// stringList accepts either a YAML sequence or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	if items, ok := v.Get(key).([]any); ok {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, splitAndTrim(fmt.Sprint(it))...)
		}
		return out
	}
	return splitAndTrim(v.GetString(key))
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
