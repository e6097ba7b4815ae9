package kafka

import (
	"github.com/segmentio/kafka-go"
)

// NewWriter returns a producer that hashes message keys to partitions, so
// every event of one group order lands on the same partition in commit order.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}
