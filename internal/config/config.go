// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	APIKeysRaw      string        `mapstructure:"API_KEYS"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	KafkaBrokers    []string      `mapstructure:"KAFKA_BROKERS"`
	ExportTopic     string        `mapstructure:"EXPORT_TOPIC"`
	ExportDLQTopic  string        `mapstructure:"EXPORT_DLQ_TOPIC"`
	ExportWorkers   int           `mapstructure:"EXPORT_WORKERS"`
	ExportQueueSize int           `mapstructure:"EXPORT_QUEUE_SIZE"`
	TracingEnabled  bool          `mapstructure:"TRACING_ENABLED"`
	OTLPEndpoint    string        `mapstructure:"OTLP_ENDPOINT"`
	TraceSampleRate float64       `mapstructure:"TRACE_SAMPLE_RATE"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "API_KEYS", "DATABASE_URL", "KAFKA_BROKERS",
	"EXPORT_TOPIC", "EXPORT_DLQ_TOPIC", "EXPORT_WORKERS", "EXPORT_QUEUE_SIZE",
	"TRACING_ENABLED", "OTLP_ENDPOINT", "TRACE_SAMPLE_RATE", "SESSION_TTL",
}

func Load() (*Config, error) {
	return load(".env")
}

func load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.AutomaticEnv()

	v.SetDefault("PORT", "8081")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("EXPORT_TOPIC", "soap.exports")
	v.SetDefault("EXPORT_DLQ_TOPIC", "soap.exports.dlq")
	v.SetDefault("EXPORT_WORKERS", 4)
	v.SetDefault("EXPORT_QUEUE_SIZE", 256)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("TRACE_SAMPLE_RATE", 1.0)
	v.SetDefault("SESSION_TTL", "12h")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// a missing .env file is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIKeys parses API_KEYS ("key:client,key:client") into a key to client id map.
// A key without a client id maps to itself.
func (c *Config) APIKeys() map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(c.APIKeysRaw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, client, ok := strings.Cut(pair, ":")
		if !ok || client == "" {
			client = key
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(client)
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ExportsEnabled reports whether exported documents are stored in Postgres
func (c *Config) ExportsEnabled() bool {
	return c.DatabaseURL != ""
}

// Validate rejects configurations the service cannot run with. Outside
// development at least one API key must be configured.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.ExportWorkers < 1 {
		return fmt.Errorf("EXPORT_WORKERS must be at least 1, got %d", c.ExportWorkers)
	}
	if c.ExportQueueSize < 1 {
		return fmt.Errorf("EXPORT_QUEUE_SIZE must be at least 1, got %d", c.ExportQueueSize)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be within [0, 1], got %v", c.TraceSampleRate)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if !c.IsDev() && len(c.APIKeys()) == 0 {
		return fmt.Errorf("API_KEYS is required when ENV=%q", c.Env)
	}
	return nil
}
