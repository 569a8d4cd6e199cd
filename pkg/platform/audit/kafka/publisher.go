// Package kafka fans audit entries out to a Kafka topic so downstream
// compliance tooling can consume the trail without querying the primary
// store. The primary store stays authoritative; Kafka delivery is
// best-effort and failures are logged, never surfaced to the operation
// that produced the entry.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "medidrop/pkg/platform/audit"
)

// Publisher wraps a primary audit.Store and mirrors every appended entry
// onto a Kafka topic, keyed by subject so per-aggregate ordering holds.
type Publisher struct {
	inner  audit.Store
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers, ensures the topic exists, and returns a
// Publisher wrapping inner.
func New(ctx context.Context, inner audit.Store, brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{inner: inner, client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	topics, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 1, -1, nil, topic); err != nil {
		return fmt.Errorf("create kafka topic %s: %w", topic, err)
	}
	return nil
}

type wirePayload struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	Kind        string `json:"kind"`
	Timestamp   string `json:"timestamp"`
	ActorID     string `json:"actor_id,omitempty"`
	Decision    string `json:"decision,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// Append writes to the primary store first; only a primary failure is
// returned. The Kafka produce is asynchronous.
func (p *Publisher) Append(ctx context.Context, entry audit.Entry) error {
	if err := p.inner.Append(ctx, entry); err != nil {
		return err
	}

	payload := wirePayload{
		ID:          entry.ID.String(),
		Category:    string(entry.Category),
		SubjectType: string(entry.SubjectType),
		SubjectID:   entry.SubjectID,
		Kind:        string(entry.Kind),
		Timestamp:   entry.Timestamp.Format(time.RFC3339Nano),
		ActorID:     entry.ActorID,
		Decision:    entry.Decision,
		Reason:      entry.Reason,
		Detail:      entry.Detail,
		RequestID:   entry.RequestID,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal audit payload for kafka", "error", err, "entry_id", entry.ID)
		return nil
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(string(entry.SubjectType) + ":" + entry.SubjectID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("produce audit entry to kafka", "error", err, "entry_id", payload.ID)
		}
	})
	return nil
}

func (p *Publisher) ListBySubject(ctx context.Context, subjectType audit.SubjectType, subjectID string) ([]audit.Entry, error) {
	return p.inner.ListBySubject(ctx, subjectType, subjectID)
}

func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	return p.inner.ListRecent(ctx, limit)
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
