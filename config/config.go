package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Reservation ReservationConfig `yaml:"reservation"`
	Fleet       FleetConfig       `yaml:"fleet"`
	Worker      WorkerConfig      `yaml:"worker"`
	Log         LogConfig         `yaml:"log"`
}

type HTTPConfig struct {
	Address         string `yaml:"address"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationTopic   string   `yaml:"reservation_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type ReservationConfig struct {
	// MaxAttempts bounds how often a decision is retried after a concurrency conflict.
	MaxAttempts int `yaml:"max_attempts"`

	// DistributedLock serialises admission across app instances through Redis.
	DistributedLock bool `yaml:"distributed_lock"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
	LockWaitMillis  int  `yaml:"lock_wait_millis"`
}

func (r ReservationConfig) LockTTL() time.Duration {
	return time.Duration(r.LockTTLSeconds) * time.Second
}

func (r ReservationConfig) LockWait() time.Duration {
	return time.Duration(r.LockWaitMillis) * time.Millisecond
}

type FleetConfig struct {
	AvailabilityCacheSeconds int `yaml:"availability_cache_seconds"`
}

func (f FleetConfig) CacheTTL() time.Duration {
	return time.Duration(f.AvailabilityCacheSeconds) * time.Second
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config and fills in defaults for optional fields.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownSeconds <= 0 {
		c.HTTP.ShutdownSeconds = 5
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Reservation.MaxAttempts <= 0 {
		c.Reservation.MaxAttempts = 3
	}
	if c.Reservation.LockTTLSeconds <= 0 {
		c.Reservation.LockTTLSeconds = 10
	}
	if c.Reservation.LockWaitMillis <= 0 {
		c.Reservation.LockWaitMillis = 2000
	}
	if c.Fleet.AvailabilityCacheSeconds <= 0 {
		c.Fleet.AvailabilityCacheSeconds = 60
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// InMemory reports whether the app runs without Postgres. Reservations then
// live in process memory and every aircraft is bookable.
func (c *Config) InMemory() bool {
	return c.Database.Host == ""
}

func (c *Config) validate() error {
	if !c.InMemory() && c.Database.Name == "" {
		return fmt.Errorf("config: database.name is required")
	}
	if c.Reservation.DistributedLock && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when reservation.distributed_lock is set")
	}
	return nil
}
