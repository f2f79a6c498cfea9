package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Database   DatabaseConfig   `yaml:"database" toml:"database"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Repository RepositoryConfig `yaml:"repository" toml:"repository"`
	Scheduler  SchedulerConfig  `yaml:"scheduler" toml:"scheduler"`
	CORS       CORSConfig       `yaml:"cors" toml:"cors"`
}

type ServerConfig struct {
	Port string `yaml:"port" toml:"port"`
	Host string `yaml:"host" toml:"host"`
}

// DatabaseConfig - пул соединений postgres
type DatabaseConfig struct {
	URL            string        `yaml:"url" toml:"url"`
	MaxConnections int           `yaml:"max_connections" toml:"max_connections"`
	MinConnections int           `yaml:"min_connections" toml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development" toml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type" toml:"type"` // "sqlite", "mysql", "postgres" или "inmemory"
	Path string `yaml:"path" toml:"path"` // файл sqlite
	DSN  string `yaml:"dsn" toml:"dsn"`   // строка подключения mysql
}

type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Interval time.Duration `yaml:"interval" toml:"interval"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

const RepositorySQLite = "sqlite"
const RepositoryMySQL = "mysql"
const RepositoryPostgres = "postgres"
const RepositoryInMemory = "inmemory"

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Repository: RepositoryConfig{
			Type: RepositorySQLite,
			Path: "listkeeper.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// Load читает конфиг поверх значений по умолчанию; формат по расширению.
// Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("неизвестный формат конфига %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("проверка %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositorySQLite:
		if c.Repository.Path == "" {
			return errors.New("repository.path обязателен для sqlite")
		}
	case RepositoryMySQL:
		if c.Repository.DSN == "" {
			return errors.New("repository.dsn обязателен для mysql")
		}
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для postgres")
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("неизвестный тип хранилища %q", c.Repository.Type)
	}

	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval должен быть положительным")
	}
	if c.Server.Port == "" {
		return errors.New("server.port обязателен")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
