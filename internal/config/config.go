package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the point-of-sale system
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Outbox   OutboxConfig   `yaml:"outbox"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig configures the api-server mode
type ServerConfig struct {
	Port int `yaml:"port"`
}

// BackendConfig tells the terminal where the REST backend lives
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CheckoutConfig toggles optional checkout behavior
type CheckoutConfig struct {
	// IdempotencyKeys attaches one Idempotency-Key per session to order submissions.
	IdempotencyKeys bool `yaml:"idempotency_keys"`
}

// GatewayConfig holds the payment gateway credentials used by the backend
type GatewayConfig struct {
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	Currency  string `yaml:"currency"`
}

// OutboxConfig configures the local table-sync outbox
type OutboxConfig struct {
	Path      string        `yaml:"path"`
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	// MaxAttempts parks a sync once it has failed this many times
	MaxAttempts int `yaml:"max_attempts"`
}

// Load reads configuration from a YAML file
func Load(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(content)
}

// Parse decodes YAML content and fills in defaults for anything left unset
func Parse(content []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Gateway.Currency == "" {
		c.Gateway.Currency = "INR"
	}
	if c.Outbox.Path == "" {
		c.Outbox.Path = "pos_outbox.db"
	}
	if c.Outbox.Interval <= 0 {
		c.Outbox.Interval = 30 * time.Second
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = 20
	}
	if c.Outbox.MaxAttempts <= 0 {
		c.Outbox.MaxAttempts = 10
	}
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
