package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// TopicExists asks the first reachable broker for the cluster's partition
// metadata and reports whether topic is among them.
func TopicExists(ctx context.Context, brokers []string, topic string) (bool, error) {
	var errs []error

	for _, broker := range brokers {
		exists, err := topicExistsOn(ctx, broker, topic)
		if err == nil {
			return exists, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", broker, err))
	}

	return false, errors.Join(errs...)
}

func topicExistsOn(ctx context.Context, broker, topic string) (bool, error) {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return false, err
	}

	for _, p := range partitions {
		if p.Topic == topic {
			return true, nil
		}
	}
	return false, nil
}
