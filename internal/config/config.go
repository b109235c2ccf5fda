package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

// EnvPrefix - префикс переменных окружения, перекрывающих файл
const EnvPrefix = "TASKBOARD"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Auth       AuthConfig       `yaml:"auth"`
	Worker     WorkerConfig     `yaml:"worker"`
	CORS       CORSConfig       `yaml:"cors"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       int           `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AutoMigrate    bool          `yaml:"auto_migrate"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

const RepositoryPostgres = "postgres"
const RepositoryInMemory = "inmemory"

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" или "inmemory"
}

type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type WorkerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       100,
		},
		Repository: RepositoryConfig{Type: RepositoryInMemory},
		Auth:       AuthConfig{TokenTTL: 24 * time.Hour},
		Worker: WorkerConfig{
			Enabled:   true,
			Interval:  5 * time.Minute,
			BatchSize: 100,
		},
		CORS: CORSConfig{Origins: []string{"*"}},
	}
}

// ParseFlags разбирает аргументы командной строки и возвращает путь к конфигу
func ParseFlags(args []string) (string, error) {
	fs := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	path := fs.StringP("config", "c", DefaultPath, "путь к файлу конфигурации")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("разбор флагов: %w", err)
	}
	return *path, nil
}

// Load читает YAML-файл и накладывает переменные окружения TASKBOARD_*.
// Отсутствующий файл не ошибка: тогда работают умолчания и окружение.
func Load(path string) (*Config, error) {
	cfg := defaults()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	str("server.host", &cfg.Server.Host)
	str("server.port", &cfg.Server.Port)
	num("server.rate_limit", &cfg.Server.RateLimit)
	str("database.url", &cfg.Database.URL)
	num("database.max_connections", &cfg.Database.MaxConnections)
	flag("database.auto_migrate", &cfg.Database.AutoMigrate)
	flag("logging.development", &cfg.Logging.Development)
	str("repository.type", &cfg.Repository.Type)
	str("auth.secret", &cfg.Auth.Secret)
	dur("auth.token_ttl", &cfg.Auth.TokenTTL)
	num("auth.bcrypt_cost", &cfg.Auth.BcryptCost)
	flag("worker.enabled", &cfg.Worker.Enabled)
	dur("worker.interval", &cfg.Worker.Interval)
	num("worker.batch_size", &cfg.Worker.BatchSize)
	if v.IsSet("cors.origins") {
		cfg.CORS.Origins = strings.Split(v.GetString("cors.origins"), ",")
	}
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("для repository.type=postgres нужен database.url")
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("неизвестный repository.type %q", c.Repository.Type)
	}
	if c.Auth.Secret == "" {
		return errors.New("не задан auth.secret")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl должен быть положительным")
	}
	if c.Worker.Enabled && c.Worker.Interval <= 0 {
		return errors.New("worker.interval должен быть положительным")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
