// config предоставляет структуру конфигурации клиента folio
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config - корневая конфигурация клиента.
// Приоритет источников:
//  1. явный путь, переданный в Load;
//  2. переменная окружения FOLIO_CONFIG;
//  3. файл ~/.config/folio/config.yaml;
//  4. переменные окружения.
type Config struct {
	ServerURL string        `yaml:"server_url" env:"FOLIO_SERVER_URL" env-default:"http://localhost:8000"`
	DBPath    string        `yaml:"db_path"    env:"FOLIO_DB_PATH"    env-default:""`
	KeyPath   string        `yaml:"key_path"   env:"FOLIO_KEY_PATH"   env-default:""`
	Timeout   time.Duration `yaml:"timeout"    env:"FOLIO_TIMEOUT"    env-default:"10s"`
	Session   SessionConfig `yaml:"session"`
}

// SessionConfig - настройки таймеров сессии.
type SessionConfig struct {
	TimeoutMinutes int `yaml:"timeout_minutes" env:"FOLIO_SESSION_TIMEOUT" env-default:"30"`
	WarningMinutes int `yaml:"warning_minutes" env:"FOLIO_SESSION_WARNING" env-default:"5"`
}

// Load загружает конфигурацию по описанному приоритету источников.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FOLIO_CONFIG")
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".config", "folio", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults заполняет пути по умолчанию относительно домашней директории.
func (c *Config) applyDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".local", "share", "folio")

	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "folio.db")
	}
	if c.KeyPath == "" {
		c.KeyPath = filepath.Join(dir, "folio.key")
	}
}
