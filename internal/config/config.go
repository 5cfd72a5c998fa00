package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config agrupa backend (cmd/api) y consola (cmd/console). Cada binario lee lo suyo.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	API      ServerConfig   `yaml:"api"`
	Console  ServerConfig   `yaml:"console"`
	Database DatabaseConfig `yaml:"database"`
	Backend  BackendConfig  `yaml:"backend"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	IAM      IAMConfig      `yaml:"iam"`
	Board    BoardConfig    `yaml:"board"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	// Timezone de la instalación; define qué es "el día" del roster.
	Timezone string `yaml:"timezone"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // vacío = repos in-memory
}

type BackendConfig struct {
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	DebugUser string        `yaml:"debug_user"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RabbitMQConfig struct {
	URL   string `yaml:"url"` // vacío = sin eventos
	Queue string `yaml:"queue"`
}

type IAMConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type BoardConfig struct {
	ReseedOnEpochAdvance bool `yaml:"reseed_on_epoch_advance"`
}

func Default() Config {
	return Config{
		App: AppConfig{Name: "pet-run-board", Timezone: "Local"},
		Log: LogConfig{Level: "info", Format: "json"},
		API: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Console: ServerConfig{
			Addr:         ":8081",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Backend: BackendConfig{
			URL:     "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{Queue: "board.saved"},
		IAM:      IAMConfig{Timeout: 5 * time.Second},
	}
}

// Load lee el YAML (si path no está vacío y existe) y aplica overrides de env.
func Load(path string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	// PORT solo afecta al API (compatibilidad con deploys existentes).
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		c.API.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("CONSOLE_PORT")); v != "" {
		c.Console.Addr = ":" + v
	}

	str("APP_NAME", &c.App.Name)
	str("FACILITY_TZ", &c.App.Timezone)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("DB_DSN", &c.Database.DSN)
	str("BACKEND_URL", &c.Backend.URL)
	str("BACKEND_API_KEY", &c.Backend.APIKey)
	str("BACKEND_DEBUG_USER", &c.Backend.DebugUser)
	str("RABBITMQ_URL", &c.RabbitMQ.URL)
	str("RABBITMQ_QUEUE", &c.RabbitMQ.Queue)
	str("IAM_BASE_URL", &c.IAM.BaseURL)
	str("IAM_API_KEY", &c.IAM.APIKey)

	if v := strings.TrimSpace(getenv("BACKEND_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: BACKEND_TIMEOUT: %w", err)
		}
		c.Backend.Timeout = d
	}
	if v := strings.TrimSpace(getenv("BOARD_RESEED_ON_EPOCH")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: BOARD_RESEED_ON_EPOCH: %w", err)
		}
		c.Board.ReseedOnEpochAdvance = b
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.Addr) == "" || strings.TrimSpace(c.Console.Addr) == "" {
		return errors.New("config: server addr required")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("config: backend timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resuelve App.Timezone ("Local" o nombre IANA).
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.App.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", tz, err)
	}
	return loc, nil
}
