package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bankauth/internal/failure"
	"bankauth/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Writer is the part of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer  Writer
	topic   string
	timeout time.Duration
}

type ProducerConfig struct {
	Brokers []string
	Topic   string
	// PublishTimeout bounds the wait for broker acknowledgement.
	PublishTimeout time.Duration
}

func NewProducer(cfg ProducerConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		MaxAttempts:  3,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Async:        false,
	}

	return NewProducerWithWriter(writer, cfg.Topic, cfg.PublishTimeout)
}

func NewProducerWithWriter(writer Writer, topic string, timeout time.Duration) *Producer {
	return &Producer{writer: writer, topic: topic, timeout: timeout}
}

// Publish writes the envelope and waits for all in-sync replicas to
// acknowledge it, at most for the configured timeout. Any failure is
// returned as *failure.EventPublishError.
func (p *Producer) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env.Payload)
	if err != nil {
		return &failure.EventPublishError{Topic: p.topic, Err: err}
	}

	msg := kafka.Message{
		Key:   []byte(env.Key),
		Value: data,
		Time:  env.Time,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(env.ID)},
			{Key: HeaderEventType, Value: []byte(env.Type)},
		},
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error().
				Str("topic", p.topic).
				Str("key", env.Key).
				Dur("timeout", p.timeout).
				Msg("timed out waiting for kafka acknowledgement")
		} else {
			logger.Error().
				Err(err).
				Str("topic", p.topic).
				Str("key", env.Key).
				Msg("failed to publish message to kafka")
		}
		return &failure.EventPublishError{Topic: p.topic, Err: err}
	}

	logger.Debug().
		Str("topic", p.topic).
		Str("key", env.Key).
		Str("event_id", env.ID).
		Str("event_type", env.Type).
		Msg("message published to kafka")

	return nil
}

// PublishUserRegistered wraps the event in an envelope keyed by user ID.
func (p *Producer) PublishUserRegistered(ctx context.Context, event UserRegisteredEvent) error {
	return p.Publish(ctx, NewUserRegistered(event))
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
