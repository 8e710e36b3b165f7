package processors

import (
	// Go Internal Packages
	"context"
	"fmt"
	"sort"

	// Local Packages
	errors "e-wallet/errors"
	models "e-wallet/models"

	// External Packages
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, record models.Record) error

type DeadLetterQueue interface {
	Send(ctx context.Context, letters []models.DeadLetter) error
}

// TxProcessor dispatches consumed records to the handler registered for their topic.
// Records that can never be handled are dead-lettered so the batch can be committed.
// It is safe for concurrent use once registration is done.
type TxProcessor struct {
	Logger   *zap.Logger
	DLQ      DeadLetterQueue
	handlers map[string]Handler
}

func NewTxProcessor(logger *zap.Logger, dlq DeadLetterQueue) *TxProcessor {
	return &TxProcessor{Logger: logger, DLQ: dlq, handlers: make(map[string]Handler)}
}

// Register adds handlers by topic. A topic registered twice keeps the last handler.
func (p *TxProcessor) Register(handlers map[string]func(context.Context, models.Record) error) *TxProcessor {
	for topic, h := range handlers {
		p.handlers[topic] = h
	}
	return p
}

// Topics returns the registered topics in a stable order.
func (p *TxProcessor) Topics() []string {
	topics := make([]string, 0, len(p.handlers))
	for t := range p.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// ProcessRecords handles records in order. Records that can never be handled are
// dead-lettered. Any other failure stops the batch and is returned so that nothing is
// committed and the failed record is delivered again.
func (p *TxProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	var (
		letters []models.DeadLetter
		failed  error
	)
	for _, record := range records {
		err := p.ProcessRecord(ctx, record)
		if err == nil {
			continue
		}
		if !poisoned(err) {
			failed = fmt.Errorf("record %s/%d@%d: %w", record.Topic, record.Partition, record.Offset, err)
			break
		}
		letters = append(letters, models.NewDeadLetter(record, err))
	}

	if len(letters) > 0 && p.DLQ != nil {
		if err := p.DLQ.Send(ctx, letters); err != nil {
			return fmt.Errorf("failed to dead-letter %d records: %w", len(letters), err)
		}
	}
	return failed
}

// poisoned reports whether redelivering the record could never succeed.
func poisoned(err error) bool {
	return errors.Is(err, errors.ErrMalformedEvent) || errors.Is(err, errors.ErrUnknownTopic)
}

func (p *TxProcessor) ProcessRecord(ctx context.Context, record models.Record) error {
	handler, ok := p.handlers[record.Topic]
	if !ok {
		err := errors.UnknownTopicErr(record.Topic)
		p.Logger.Error("failed to route record", zap.Error(err))
		return err
	}

	err := handler(ctx, record)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrMalformedEvent):
		p.Logger.Warn("dropping malformed event", zap.String("topic", record.Topic),
			zap.Int64("offset", record.Offset), zap.Error(err))
	default:
		p.Logger.Error("failed to process record", zap.String("topic", record.Topic),
			zap.ByteString("key", record.Key), zap.Error(err))
	}
	return err
}
