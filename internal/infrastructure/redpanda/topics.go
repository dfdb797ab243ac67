package redpanda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Default topic names
const (
	TopicExports           = "soap.exports"
	TopicExportsDeadLetter = "soap.exports.dlq"
)

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	Configs           map[string]*string
}

// ExportTopicConfigs returns the export topic and its dead letter topic.
// Exports are keyed by idempotency key and compacted so the latest copy of a document survives.
func ExportTopicConfigs(exports, deadLetter string) []TopicConfig {
	ptr := func(s string) *string { return &s }

	return []TopicConfig{
		{
			Name:              exports,
			Partitions:        3,
			ReplicationFactor: 1,
			Configs: map[string]*string{
				"cleanup.policy":   ptr("compact"),
				"compression.type": ptr("zstd"),
			},
		},
		{
			Name:              deadLetter,
			Partitions:        1,
			ReplicationFactor: 1,
			Configs: map[string]*string{
				"retention.ms":   ptr("1209600000"), // 14 days
				"cleanup.policy": ptr("delete"),
			},
		},
	}
}

// Admin provides topic administration
type Admin struct {
	client *kadm.Client
	logger *zap.Logger
}

// NewAdmin creates a new admin client
func NewAdmin(brokers []string, logger *zap.Logger) (*Admin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kgoClient, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Admin{
		client: kadm.NewClient(kgoClient),
		logger: logger,
	}, nil
}

// EnsureTopics creates the topics that do not exist yet
func (a *Admin) EnsureTopics(ctx context.Context, configs []TopicConfig) error {
	for _, cfg := range configs {
		resp, err := a.client.CreateTopics(ctx, cfg.Partitions, cfg.ReplicationFactor, cfg.Configs, cfg.Name)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", cfg.Name, err)
		}

		for _, r := range resp {
			switch {
			case errors.Is(r.Err, kerr.TopicAlreadyExists):
				a.logger.Debug("topic already exists", zap.String("topic", r.Topic))
			case r.Err != nil:
				return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
			default:
				a.logger.Info("topic created",
					zap.String("topic", r.Topic),
					zap.Int32("partitions", cfg.Partitions))
			}
		}
	}
	return nil
}

// ListTopics lists all topic names
func (a *Admin) ListTopics(ctx context.Context) ([]string, error) {
	topics, err := a.client.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics.Names(), nil
}

// Close closes the admin client
func (a *Admin) Close() {
	a.client.Close()
}

// HealthCheck verifies Redpanda connectivity
func HealthCheck(ctx context.Context, brokers []string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
