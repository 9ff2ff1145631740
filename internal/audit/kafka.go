package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes outbox events to a Kafka topic. Events are keyed by
// registration ID (member ID for auth events) so per-entity ordering holds
// within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the brokers and ensures the audit topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string, replicas int) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, int16(replicas), nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}

	return &KafkaSink{client: client, topic: topic}, nil
}

// Publish produces the batch synchronously. Any record failure fails the
// batch; the worker retries the whole batch on its next tick (consumers must
// tolerate duplicates).
func (s *KafkaSink) Publish(ctx context.Context, events []Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal audit event %s: %w", event.ID, err)
		}
		key := event.RegistrationID
		if key == "" {
			key = event.MemberID
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(key),
			Value: payload,
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit events: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
