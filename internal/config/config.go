package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the whole service configuration, read from the environment.
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	Redis  RedisConfig
	Scan   ScanConfig
	Report ReportConfig
	Roster RosterConfig
	Stores StoresConfig
}

type AppConfig struct {
	Env       string `envconfig:"ATTENDANCE_APP_ENV" default:"dev"`
	Port      string `envconfig:"ATTENDANCE_SERVER_PORT" default:"8080"`
	LogLevel  string `envconfig:"ATTENDANCE_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"ATTENDANCE_LOG_FORMAT" default:"json"`
}

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN           string        `envconfig:"ATTENDANCE_DB_DSN"`
	Host          string        `envconfig:"ATTENDANCE_DB_HOST"`
	Port          string        `envconfig:"ATTENDANCE_DB_PORT" default:"5432"`
	User          string        `envconfig:"ATTENDANCE_DB_USER"`
	Password      string        `envconfig:"ATTENDANCE_DB_PASSWORD"`
	Name          string        `envconfig:"ATTENDANCE_DB_NAME"`
	SSLMode       string        `envconfig:"ATTENDANCE_DB_SSLMODE" default:"disable"`
	MaxRetries    int           `envconfig:"ATTENDANCE_DB_MAX_RETRIES" default:"5"`
	RetryInterval time.Duration `envconfig:"ATTENDANCE_DB_RETRY_INTERVAL" default:"5s"`
}

type JWTConfig struct {
	Secret          string `envconfig:"ATTENDANCE_JWT_SECRET_KEY" required:"true"`
	ExpirationHours int64  `envconfig:"ATTENDANCE_JWT_EXPIRATION_HOURS" default:"24"`
}

// RedisConfig is optional. Without a URL scan sessions live in process memory.
type RedisConfig struct {
	URL string `envconfig:"ATTENDANCE_REDIS_URL"`
}

type ScanConfig struct {
	SessionTTL    time.Duration `envconfig:"ATTENDANCE_SCAN_SESSION_TTL" default:"10m"`
	SweepSchedule string        `envconfig:"ATTENDANCE_SCAN_SWEEP_SCHEDULE" default:"@every 1m"`
}

type ReportConfig struct {
	Timezone   string `envconfig:"ATTENDANCE_REPORT_TIMEZONE" default:"Europe/Istanbul"`
	DateLayout string `envconfig:"ATTENDANCE_REPORT_DATE_LAYOUT" default:"02.01.2006"`
	TimeLayout string `envconfig:"ATTENDANCE_REPORT_TIME_LAYOUT" default:"15:04:05"`
}

// Location resolves Timezone, falling back to the process local zone.
func (r ReportConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(r.Timezone); err == nil {
		return loc
	}
	return time.Local
}

type RosterConfig struct {
	FetchConcurrency int `envconfig:"ATTENDANCE_ROSTER_FETCH_CONCURRENCY" default:"8"`
}

type StoresConfig struct {
	InitialCredits        int `envconfig:"ATTENDANCE_STORE_INITIAL_CREDITS" default:"0"`
	ReferenceCodeAttempts int `envconfig:"ATTENDANCE_STORE_REFCODE_ATTEMPTS" default:"5"`
}

// Load reads ATTENDANCE_* variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("ATTENDANCE_JWT_SECRET_KEY not set in environment")
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database environment variables not set (ATTENDANCE_DB_DSN or ATTENDANCE_DB_HOST, ATTENDANCE_DB_USER, ATTENDANCE_DB_NAME)")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	d.DSN = u.String()
	return nil
}
