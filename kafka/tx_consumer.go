package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	// Local Packages
	models "e-wallet/models"
	utils "e-wallet/utils"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// retryBackoff is the pause before a batch that failed to process is fetched again.
const retryBackoff = time.Second

type Consumer struct {
	Client    *kgo.Client
	Config    *models.ConsumerConfig
	Processor RecordProcessor
	Logger    *zap.Logger
}

type RecordProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

// NewTxConsumer creates a consumer group member for every topic in conf
// (PS: Must call Poll to start consuming the records)
func NewTxConsumer(conf *models.ConsumerConfig, processor RecordProcessor, metrics *kprom.Metrics, logger *zap.Logger) (*Consumer, error) {
	c := &Consumer{Config: conf, Processor: processor, Logger: logger}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...), // Connects to Kafka brokers
		kgo.ConsumerGroup(conf.Name),     // Specifies the consumer group
		kgo.ConsumeTopics(conf.Topics...),
		kgo.WithHooks(metrics),     // Attaches monitoring hooks
		kgo.DisableAutoCommit(),    // Commits only after the records were handled
		kgo.BlockRebalanceOnPoll(), // Blocks rebalancing until the polled batch is committed
		kgo.OnPartitionsAssigned(func(_ context.Context, _ *kgo.Client, assigned map[string][]int32) {
			logger.Info("partitions assigned", zap.String("assignment", utils.DescribeAssignment(assigned)))
		}),
		kgo.OnPartitionsRevoked(func(_ context.Context, _ *kgo.Client, revoked map[string][]int32) {
			logger.Info("partitions revoked", zap.String("assignment", utils.DescribeAssignment(revoked)))
		}),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("kafka client was not created")
	}

	c.Client = client
	return c, nil
}

// Poll polls for records from the Kafka broker until ctx is cancelled. Partitions of a
// poll are processed concurrently, the records of one partition in offset order.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Client.Close()

	consumerName := c.Config.Summary()
	recordsPerPoll := c.Config.RecordsPerPoll

	for {
		// Check if the context is canceled before polling
		if ctx.Err() != nil {
			c.Logger.Warn("Polling stopped: context canceled")
			return ctx.Err()
		}

		c.Logger.Debug(fmt.Sprintf("%s: polling for records", consumerName))
		fetches := c.Client.PollRecords(ctx, recordsPerPoll)

		// Handle client shutdown
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}

		// Handle context cancellation explicitly
		if errors.Is(fetches.Err0(), context.Canceled) {
			return errors.New("context got canceled")
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.Logger.Error("fetch error", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		if err := c.process(ctx, fetches); err != nil {
			// nothing is committed and the whole batch is fetched again
			rewind := rewindOffsets(fetches)
			c.Logger.Error("Failed to process records, rewinding",
				zap.String("offsets", describeOffsets(rewind)), zap.Error(err))
			c.Client.SetOffsets(rewind)
			c.Client.AllowRebalance()

			select {
			case <-ctx.Done():
			case <-time.After(retryBackoff):
			}
			continue
		}

		if err := c.Client.CommitRecords(ctx, fetches.Records()...); err != nil {
			c.Logger.Error("Failed to commit records", zap.Error(err))
		}
		c.Client.AllowRebalance()
	}
}

func (c *Consumer) process(ctx context.Context, fetches kgo.Fetches) error {
	g, gctx := errgroup.WithContext(ctx)
	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		if len(p.Records) == 0 {
			return
		}

		// Preallocate records slice efficiently
		records := make([]models.Record, len(p.Records))
		for idx, record := range p.Records {
			records[idx] = models.Record{
				Key:       record.Key,
				Value:     record.Value,
				Topic:     record.Topic,
				Partition: record.Partition,
				Offset:    record.Offset,
			}
		}
		g.Go(func() error {
			return c.Processor.ProcessRecords(gctx, records)
		})
	})
	return g.Wait()
}

// rewindOffsets returns the first fetched offset of every partition that returned records.
func rewindOffsets(fetches kgo.Fetches) map[string]map[int32]kgo.EpochOffset {
	offsets := make(map[string]map[int32]kgo.EpochOffset)
	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		if len(p.Records) == 0 {
			return
		}
		if offsets[p.Topic] == nil {
			offsets[p.Topic] = make(map[int32]kgo.EpochOffset)
		}
		offsets[p.Topic][p.Partition] = kgo.EpochOffset{Epoch: -1, Offset: p.Records[0].Offset}
	})
	return offsets
}

func describeOffsets(offsets map[string]map[int32]kgo.EpochOffset) string {
	positions := make(map[string][]int32, len(offsets))
	for topic, partitions := range offsets {
		for partition := range partitions {
			positions[topic] = append(positions[topic], partition)
		}
		slices.Sort(positions[topic])
	}
	return utils.DescribeAssignment(positions)
}
