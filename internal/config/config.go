// Пакет config собирает настройки сервисов из YAML-файла и переменных окружения
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

// Config - настройки API, консьюмера и CLI
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
	Auth       AuthConfig       `yaml:"auth"`
	Reorder    ReorderConfig    `yaml:"reorder"`
	Log        LogConfig        `yaml:"log"`
	Client     ClientConfig     `yaml:"client"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig - подключение к Postgres
type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name"`
	MigrationsPath string `yaml:"migrations_path"`
}

// DSN возвращает строку подключения lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	TTL        time.Duration `yaml:"ttl"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type ClickHouseConfig struct {
	DSN            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type ConsumerConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Port      string `yaml:"port"`
}

// AuthConfig - единственный администратор; пароль хранится только как bcrypt-хеш
type AuthConfig struct {
	AdminEmail        string `yaml:"admin_email"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

// ReorderConfig управляет записью пакетов позиций
type ReorderConfig struct {
	// Concurrency - сколько UPDATE одного пакета выполняются одновременно
	Concurrency int `yaml:"concurrency"`
	// Atomic - весь пакет в одной транзакции вместо независимых записей
	Atomic bool `yaml:"atomic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ClientConfig - настройки cmsctl
type ClientConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			Name:           "appdb",
			MigrationsPath: "file://migrations/postgres",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			TTL:        time.Minute,
			SessionTTL: 24 * time.Hour,
		},
		NATS:       NATSConfig{URL: "nats://localhost:4222", Subject: "cms.events"},
		ClickHouse: ClickHouseConfig{MigrationsPath: "file://migrations/clickhouse"},
		Consumer:   ConsumerConfig{BatchSize: 10, Port: "8081"},
		Reorder:    ReorderConfig{Concurrency: 8},
		Log:        LogConfig{Level: "info", Format: "text"},
		Client:     ClientConfig{URL: "http://localhost:8080"},
	}
}

// Load читает CONFIG_FILE (если задан), затем переопределяет значения из окружения
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.TTL = getEnvDuration("REDIS_TTL", c.Redis.TTL, &errs)
	c.Redis.SessionTTL = getEnvDuration("SESSION_TTL", c.Redis.SessionTTL, &errs)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Subject = getEnv("NATS_SUBJECT", c.NATS.Subject)

	c.ClickHouse.DSN = getEnv("CLICKHOUSE_DSN", c.ClickHouse.DSN)
	c.ClickHouse.MigrationsPath = getEnv("CLICKHOUSE_MIGRATIONS_PATH", c.ClickHouse.MigrationsPath)

	c.Consumer.BatchSize = getEnvInt("BATCH_SIZE", c.Consumer.BatchSize, &errs)
	c.Consumer.Port = getEnv("CONSUMER_PORT", c.Consumer.Port)

	c.Auth.AdminEmail = getEnv("ADMIN_EMAIL", c.Auth.AdminEmail)
	c.Auth.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.Auth.AdminPasswordHash)

	c.Reorder.Concurrency = getEnvInt("REORDER_CONCURRENCY", c.Reorder.Concurrency, &errs)
	c.Reorder.Atomic = getEnvBool("REORDER_ATOMIC", c.Reorder.Atomic, &errs)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Client.URL = getEnv("CMS_URL", c.Client.URL)
	c.Client.Token = getEnv("CMS_TOKEN", c.Client.Token)
	return errors.Join(errs...)
}

// Validate проверяет настройки API-сервера
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.Redis.TTL <= 0 || c.Redis.SessionTTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL and SESSION_TTL must be positive"))
	}
	if c.NATS.Subject == "" {
		errs = append(errs, errors.New("NATS_SUBJECT is required"))
	}
	if c.Reorder.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("REORDER_CONCURRENCY must be at least 1, got %d", c.Reorder.Concurrency))
	}
	if c.Auth.AdminEmail == "" || c.Auth.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required"))
	}
	return errors.Join(errs...)
}

// ValidateConsumer проверяет настройки консьюмера журнала
func (c *Config) ValidateConsumer() error {
	var errs []error
	if c.ClickHouse.DSN == "" {
		errs = append(errs, errors.New("CLICKHOUSE_DSN is required"))
	}
	if c.Consumer.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("BATCH_SIZE must be at least 1, got %d", c.Consumer.BatchSize))
	}
	if c.NATS.Subject == "" {
		errs = append(errs, errors.New("NATS_SUBJECT is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func getEnvBool(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return d
}
