// Package publisher sends the changes applied to streams to a Kafka topic so
// systems outside the node can follow the ledger.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
)

// Config represents the settings for connecting to Kafka.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Publisher writes stream changes to a topic. Messages are keyed by stream
// id so every change for a stream lands on the same partition in order.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// New connects to the brokers and constructs a publisher.
func New(cfg Config) (*Publisher, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("connecting to kafka: %w", err)
	}

	return NewWithProducer(producer, cfg.Topic), nil
}

// NewWithProducer constructs a publisher around an existing producer.
func NewWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
	}
}

// Notify implements the state.Notifier interface.
func (p *Publisher) Notify(ctx context.Context, change state.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	js, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("json marshal change: %w", err)
	}

	msg := sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(change.StreamID, 10)),
		Value: sarama.ByteEncoder(js),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(change.Kind)},
		},
	}

	if _, _, err := p.producer.SendMessage(&msg); err != nil {
		return fmt.Errorf("send change to kafka: %w", err)
	}

	return nil
}

// Close shuts the producer down.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
