package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// Producer publishes JSON events. Records are keyed by transaction id so all events of
// one transaction land on the same partition of a topic.
type Producer struct {
	Client *kgo.Client
	Logger *zap.Logger
}

func NewProducer(brokers []string, metrics *kprom.Metrics, logger *zap.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.WithHooks(metrics),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{Client: client, Logger: logger}, nil
}

// Publish returns once the broker acknowledged the record.
func (p *Producer) Publish(ctx context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", topic, err)
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: data}
	if err := p.Client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	p.Logger.Debug("event published", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *Producer) Close() {
	p.Client.Close()
}
