package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	SourcesFile     string `env:"SOURCES_FILE"`
	MaxItemsPerFeed int    `env:"MAX_ITEMS_PER_FEED"`
	DataPath        string `env:"DATA_PATH"`

	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Update   UpdateConfig

	ControlAddr string `env:"CONTROL_ADDR" envDefault:"127.0.0.1:8088"`
	UserAgent   string `env:"HTTP_USER_AGENT" envDefault:"rssdigest/1.0"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

type StoreConfig struct {
	Driver       string `env:"STORE_DRIVER" envDefault:"file"`
	AtomicWrites bool   `env:"STORE_ATOMIC_WRITES" envDefault:"true"`
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	Database string `env:"POSTGRES_DBNAME" envDefault:"rssdigest"`
}

type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"rssdigest:snapshot:"`
}

type LLMConfig struct {
	APIKey        string  `env:"LLM_API_KEY"`
	BaseURL       string  `env:"LLM_API_BASE"`
	Model         string  `env:"LLM_NAME"`
	Temperature   float64 `env:"LLM_TEMPERATURE" envDefault:"0.3"`
	MaxTokens     int     `env:"LLM_MAX_TOKENS" envDefault:"500"`
	Language      string  `env:"LLM_SUMMARY_LANGUAGE" envDefault:"Chinese"`
	MaxInputChars int     `env:"LLM_MAX_INPUT_CHARS" envDefault:"20000"`
	RateLimit     float64 `env:"LLM_RATE_LIMIT" envDefault:"0"`
}

type UpdateConfig struct {
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	EnrichTimeout     time.Duration `env:"ENRICH_TIMEOUT" envDefault:"60s"`
	EnrichConcurrency int           `env:"ENRICH_CONCURRENCY" envDefault:"0"`
	Placeholder       string        `env:"SUMMARY_PLACEHOLDER" envDefault:"Summary unavailable."`
	Interval          time.Duration `env:"UPDATE_INTERVAL" envDefault:"1h"`
}

// Load reads .env files, then the environment.
func Load() (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env, falling back to .env.local.
// Missing files are not an error; variables already set in the process win.
func loadEnvFiles() error {
	if f := os.Getenv("ENV_FILE"); f != "" {
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
		return nil
	}
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
		return nil
	}
	return nil
}

// ValidateLLM checks the variables required to summarize entries.
func (c Config) ValidateLLM() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is not set"))
	}
	if c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("LLM_API_BASE is not set"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("LLM_NAME is not set"))
	}
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "file", "postgres", "redis":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.MaxItemsPerFeed < 0 {
		return errors.New("MAX_ITEMS_PER_FEED must be >= 0")
	}
	if c.Update.EnrichConcurrency < 0 {
		return errors.New("ENRICH_CONCURRENCY must be >= 0")
	}
	if c.Update.Interval <= 0 {
		return errors.New("UPDATE_INTERVAL must be > 0")
	}
	return nil
}

// URL builds the lib/pq connection string.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}
