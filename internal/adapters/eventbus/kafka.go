package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// KafkaSink forwards event envelopes to a Kafka topic using an async
// producer. Events are keyed by type so consumers see per-type ordering.
type KafkaSink struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = 500 * time.Millisecond
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Return.Successes = false

	producer, err := sarama.NewAsyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating Sarama AsyncProducer: %w", err)
	}

	s := &KafkaSink{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
	s.wg.Add(1)
	go s.drainErrors()
	return s, nil
}

func (s *KafkaSink) Emit(ctx context.Context, e Envelope) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event envelope: %w", err)
	}

	s.producer.Input() <- &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(e.Type),
		Value: sarama.ByteEncoder(value),
	}
	return nil
}

// drainErrors logs asynchronous delivery failures until the producer closes.
func (s *KafkaSink) drainErrors() {
	defer s.wg.Done()
	for err := range s.producer.Errors() {
		s.logger.Error("kafka event delivery failed",
			slog.String("topic", s.topic),
			slog.String("error", err.Err.Error()),
		)
	}
}

func (s *KafkaSink) Close() error {
	err := s.producer.Close()
	s.wg.Wait()
	return err
}

var _ Sink = (*KafkaSink)(nil)
