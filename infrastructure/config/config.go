package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverMongoDB  = "mongodb"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required"`
	Environment   string `yaml:"environment" validate:"oneof=development test staging production"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	Store      StoreConfig      `yaml:"store"`
	Connection ConnectionConfig `yaml:"connection"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Observability
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`

	// Feature flags
	EnableCircuitBreaker bool     `yaml:"enable_circuit_breaker"`
	CORSAllowedOrigins   []string `yaml:"cors_allowed_origins" validate:"min=1"`

	// ConfigFile is the YAML overlay this configuration was read from, if any
	ConfigFile string `yaml:"-"`
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=mongodb dynamodb memory"`

	// MongoDB
	MongoURI        string `yaml:"mongodb_uri" validate:"required_if=Driver mongodb"`
	MongoDatabase   string `yaml:"mongodb_database" validate:"required_if=Driver mongodb"`
	MongoCollection string `yaml:"mongodb_collection" validate:"required_if=Driver mongodb"`

	// DynamoDB
	TableName        string `yaml:"table_name" validate:"required_if=Driver dynamodb"`
	AWSRegion        string `yaml:"aws_region" validate:"required_if=Driver dynamodb"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
}

// ConnectionConfig tunes the connection lifecycle
type ConnectionConfig struct {
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxPoolSize       uint64        `yaml:"max_pool_size" validate:"gte=1"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gte=500ms"`
	WarmOnStart       bool          `yaml:"warm_on_start"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ServerAddress: ":3000",
		Environment:   "development",
		Store: StoreConfig{
			Driver:          DriverMongoDB,
			MongoDatabase:   "research",
			MongoCollection: "journal",
			TableName:       "journals",
			AWSRegion:       "us-east-1",
		},
		Connection: ConnectionConfig{
			Timeout:           5 * time.Second,
			MaxPoolSize:       20,
			HeartbeatInterval: time.Second,
		},
		LogLevel:             "info",
		EnableMetrics:        true,
		OTLPEndpoint:         "localhost:4317",
		EnableCircuitBreaker: true,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and environment variables, in increasing priority.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	cfg.loadEnvironment()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnvironment() {
	if port := os.Getenv("PORT"); port != "" {
		c.ServerAddress = ":" + strings.TrimPrefix(port, ":")
	}
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	c.IsLambda = getEnvBool("IS_LAMBDA", c.LambdaFunctionName != "")

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.MongoURI = getEnv("MONGODB_URI", c.Store.MongoURI)
	c.Store.MongoDatabase = getEnv("MONGODB_DATABASE", c.Store.MongoDatabase)
	c.Store.MongoCollection = getEnv("MONGODB_COLLECTION", c.Store.MongoCollection)
	c.Store.TableName = getEnv("TABLE_NAME", c.Store.TableName)
	c.Store.AWSRegion = getEnv("AWS_REGION", c.Store.AWSRegion)
	c.Store.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.Store.DynamoDBEndpoint)

	c.Connection.Timeout = getEnvDuration("CONNECT_TIMEOUT", c.Connection.Timeout)
	c.Connection.MaxPoolSize = uint64(getEnvInt("MAX_POOL_SIZE", int(c.Connection.MaxPoolSize)))
	c.Connection.HeartbeatInterval = getEnvDuration("HEARTBEAT_INTERVAL", c.Connection.HeartbeatInterval)
	c.Connection.WarmOnStart = getEnvBool("WARM_CONNECT", c.Connection.WarmOnStart)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCircuitBreaker = getEnvBool("ENABLE_CIRCUIT_BREAKER", c.EnableCircuitBreaker)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORSAllowedOrigins = splitList(origins)
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts a Go duration ("5s") or a bare number of milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
