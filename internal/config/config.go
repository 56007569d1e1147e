package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Steppin POS"`
		Port int    `envconfig:"PORT" default:"8080"`
		Env  string `envconfig:"APP_ENV" default:"development"`
	}

	Store struct {
		// Driver is one of memory, postgres or bolt.
		Driver   string `envconfig:"STORE_DRIVER" default:"memory"`
		BoltPath string `envconfig:"BOLT_PATH" default:"steppin.db"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"steppin"`
	}

	Redis struct {
		// URL enables the shared analytics cache; empty keeps it in process.
		URL      string        `envconfig:"REDIS_URL"`
		CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"10m"`
	}

	POS struct {
		Sizes             []string `envconfig:"POS_SIZES" default:"6,6.5,7,7.5,8,8.5,9,9.5,10,10.5,11,11.5,12"`
		MaxCommitRetries  int      `envconfig:"POS_MAX_COMMIT_RETRIES" default:"3"`
		LowStockThreshold int      `envconfig:"POS_LOW_STOCK_THRESHOLD" default:"5"`
		TimeZone          string   `envconfig:"POS_TIME_ZONE" default:"Local"`
	}

	Report struct {
		Schedule string `envconfig:"REPORT_SCHEDULE" default:"5 0 * * *"`
		Dir      string `envconfig:"REPORT_DIR" default:"exports"`
		Enabled  bool   `envconfig:"REPORT_ENABLED" default:"true"`
	}

	Log struct {
		Level      string `envconfig:"LOG_LEVEL"`
		File       string `envconfig:"LOG_FILE"`
		MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
		MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Location resolves POS_TIME_ZONE, the zone whose calendar decides "today".
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.POS.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.POS.TimeZone, err)
	}

	return loc, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	switch cfg.Store.Driver {
	case "memory", "postgres", "bolt":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q, want memory, postgres or bolt", cfg.Store.Driver)
	}

	if cfg.POS.MaxCommitRetries < 0 {
		return nil, fmt.Errorf("POS_MAX_COMMIT_RETRIES must not be negative")
	}

	return &cfg, nil
}
