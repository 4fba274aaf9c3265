package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	Rollbar   RollbarConfig   `yaml:"rollbar"`
	Log       LogConfig       `yaml:"log"`
	Billing   BillingConfig   `yaml:"billing"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`      // HTTP API
	GRPCPort int    `yaml:"grpc_port"` // health and reflection only
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// SendGridConfig contains email settings. An empty API key logs emails instead of sending them.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// RabbitMQConfig contains event publishing settings. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// RedisConfig backs the idempotency store. An empty URL disables it.
type RedisConfig struct {
	URL                    string `yaml:"url"`
	KeyPrefix              string `yaml:"key_prefix"`
	IdempotencyTTLMinutes  int    `yaml:"idempotency_ttl_minutes"`
	IdempotencyLockSeconds int    `yaml:"idempotency_lock_seconds"`
}

type RollbarConfig struct {
	Token       string `yaml:"token"`
	Environment string `yaml:"environment"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BillingConfig contains refund and penalty settings
type BillingConfig struct {
	LateFeePerDay     int64 `yaml:"late_fee_per_day"`
	ReminderAfterDays int   `yaml:"reminder_after_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	MarkOverdueBorrowings string `yaml:"mark_overdue_borrowings"`
	SendPenaltyReminders  string `yaml:"send_penalty_reminders"`
}

// Load reads configuration from a YAML file. Variables from a .env file in the
// working directory are loaded first and never override the real environment.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Integrations
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.RabbitMQ.URL = val
	}
	if val := os.Getenv("REDIS_URL"); val != "" {
		c.Redis.URL = val
	}
	if val := os.Getenv("ROLLBAR_TOKEN"); val != "" {
		c.Rollbar.Token = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Billing
	if val := os.Getenv("LATE_FEE_PER_DAY"); val != "" {
		fmt.Sscanf(val, "%d", &c.Billing.LateFeePerDay)
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Integration defaults
	if c.SendGrid.FromEmail == "" {
		c.SendGrid.FromEmail = "no-reply@iotkit.local"
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "IoT Kit Rental"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "kit_rental_events"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "iotkit:idempotency"
	}
	if c.Redis.IdempotencyTTLMinutes <= 0 {
		c.Redis.IdempotencyTTLMinutes = 1440
	}
	if c.Redis.IdempotencyLockSeconds <= 0 {
		c.Redis.IdempotencyLockSeconds = 30
	}
	if c.Rollbar.Environment == "" {
		c.Rollbar.Environment = "development"
	}

	// Billing defaults
	if c.Billing.LateFeePerDay < 0 {
		return fmt.Errorf("late fee per day must not be negative: %d", c.Billing.LateFeePerDay)
	}
	if c.Billing.LateFeePerDay == 0 {
		c.Billing.LateFeePerDay = 10000
	}
	if c.Billing.ReminderAfterDays <= 0 {
		c.Billing.ReminderAfterDays = 7
	}

	// Scheduler defaults
	if c.Scheduler.MarkOverdueBorrowings == "" {
		c.Scheduler.MarkOverdueBorrowings = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.SendPenaltyReminders == "" {
		c.Scheduler.SendPenaltyReminders = "0 0 2 * * *" // 2 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
