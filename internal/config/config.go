package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Worker   WorkerConfig   `yaml:"worker"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
	Environment string `yaml:"environment" env:"APP_ENV"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// DatabaseConfig holds storage configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DATABASE_DRIVER"`
	Host            string        `yaml:"host" env:"DATABASE_HOST"`
	Port            int           `yaml:"port" env:"DATABASE_PORT"`
	User            string        `yaml:"user" env:"DATABASE_USER"`
	Password        string        `yaml:"password" env:"DATABASE_PASSWORD"`
	Database        string        `yaml:"database" env:"DATABASE_NAME"`
	SSLMode         string        `yaml:"sslmode" env:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	RunMigrations   bool          `yaml:"run_migrations" env:"DATABASE_RUN_MIGRATIONS"`
}

// AuthConfig holds the accepted client credentials and token lifetime
type AuthConfig struct {
	ClientID      string        `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret  string        `yaml:"client_secret" env:"CLIENT_SECRET"`
	TokenTTLHours int           `yaml:"token_ttl_hours" env:"ACCESS_TOKEN_EXPIRE_HOURS"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// TokenTTL returns the token lifetime
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// GeminiConfig holds analysis provider settings
type GeminiConfig struct {
	APIKey            string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model             string        `yaml:"model" env:"GEMINI_MODEL"`
	Temperature       float32       `yaml:"temperature"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	CanonicalNamePath string        `yaml:"canonical_name_path"`
}

// WorkerConfig holds async job pool configuration
type WorkerConfig struct {
	Concurrency       int           `yaml:"concurrency" env:"WORKER_CONCURRENCY"`
	QueueSize         int           `yaml:"queue_size" env:"WORKER_QUEUE_SIZE"`
	EstimatedDuration time.Duration `yaml:"estimated_duration"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// EventsConfig holds optional job lifecycle event publishing
type EventsConfig struct {
	Enabled  bool           `yaml:"enabled" env:"EVENTS_ENABLED"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host" env:"RABBITMQ_HOST"`
	Port       int              `yaml:"port" env:"RABBITMQ_PORT"`
	User       string           `yaml:"user" env:"RABBITMQ_USER"`
	Password   string           `yaml:"password" env:"RABBITMQ_PASSWORD"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Durable bool   `yaml:"durable"`
}

// QueueConfig holds an optional queue bound to the exchange
type QueueConfig struct {
	Name    string `yaml:"name"`
	Durable bool   `yaml:"durable"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level" env:"LOG_LEVEL"`
	Format       string `yaml:"format" env:"LOG_FORMAT"`
	Output       string `yaml:"output" env:"LOG_OUTPUT"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// Load reads the configuration file, overlays environment variables and
// fills defaults. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "company-intel"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.Database.ConnMaxIdleTime == 0 {
		c.Database.ConnMaxIdleTime = time.Minute
	}

	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Auth.SweepInterval == 0 {
		c.Auth.SweepInterval = time.Hour
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.MaxAttempts == 0 {
		c.Gemini.MaxAttempts = 3
	}
	if c.Gemini.BaseDelay == 0 {
		c.Gemini.BaseDelay = time.Second
	}
	if c.Gemini.MaxDelay == 0 {
		c.Gemini.MaxDelay = 16 * time.Second
	}
	if c.Gemini.RequestTimeout == 0 {
		c.Gemini.RequestTimeout = 120 * time.Second
	}
	if c.Gemini.CanonicalNamePath == "" {
		c.Gemini.CanonicalNamePath = "company_basic_info.company_legal_name"
	}

	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 4
	}
	if c.Worker.QueueSize == 0 {
		c.Worker.QueueSize = 100
	}
	if c.Worker.EstimatedDuration == 0 {
		c.Worker.EstimatedDuration = 60 * time.Second
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}

	mq := &c.Events.RabbitMQ
	if mq.Port == 0 {
		mq.Port = 5672
	}
	if mq.VHost == "" {
		mq.VHost = "/"
	}
	if mq.Exchange.Type == "" {
		mq.Exchange.Type = "topic"
	}
	if mq.RoutingKey == "" {
		mq.RoutingKey = "company.job.finished"
	}
	if mq.Connection.RetryAttempts == 0 {
		mq.Connection.RetryAttempts = 3
	}
	if mq.Connection.RetryInterval == 0 {
		mq.Connection.RetryInterval = 2 * time.Second
	}
	if mq.Connection.Heartbeat == 0 {
		mq.Connection.Heartbeat = 10 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
		return fmt.Errorf("auth client_id and client_secret are required")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("auth token_ttl_hours must be greater than 0")
	}
	if c.Auth.SweepInterval <= 0 {
		return fmt.Errorf("auth sweep_interval must be greater than 0")
	}

	if c.Gemini.MaxAttempts <= 0 {
		return fmt.Errorf("gemini max_attempts must be greater than 0")
	}
	if c.Gemini.MaxDelay < c.Gemini.BaseDelay {
		return fmt.Errorf("gemini max_delay must not be less than base_delay")
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker queue_size must be greater than 0")
	}

	if c.Events.Enabled {
		mq := c.Events.RabbitMQ
		if mq.Host == "" {
			return fmt.Errorf("rabbitmq host is required when events are enabled")
		}
		if mq.Port < MinPort || mq.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", mq.Port, MinPort, MaxPort)
		}
		if mq.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required when events are enabled")
		}
	}

	return nil
}
