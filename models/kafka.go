package models

import (
	// Go Internal Packages
	"strings"
	"time"
)

type Record struct {
	Key       []byte `json:"key"`
	Value     []byte `json:"value"`
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
}

type ConsumerConfig struct {
	Brokers        []string
	Name           string
	Topics         []string
	RecordsPerPoll int
}

// DeadLetter is a record the processors gave up on, with the reason.
type DeadLetter struct {
	Topic     string    `json:"topic"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Partition int32     `json:"partition"`
	Offset    int64     `json:"offset"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

func NewDeadLetter(record Record, reason error) DeadLetter {
	return DeadLetter{
		Topic:     record.Topic,
		Key:       string(record.Key),
		Value:     string(record.Value),
		Partition: record.Partition,
		Offset:    record.Offset,
		Reason:    reason.Error(),
		FailedAt:  time.Now().UTC(),
	}
}

// Summary is a short description used in logs.
func (c ConsumerConfig) Summary() string {
	return c.Name + "[" + strings.Join(c.Topics, ",") + "]"
}
