package types

import (
	"context"
	"encoding/json"
	"fmt"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

const SlugKafka = "kafka"

// Publisher produces one keyed message. The platform Kafka producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Kafka publishes matched records to a topic for downstream consumers
// (SIEM pipelines, long-term archival). Keyed by record ID so repeat
// notifications for a record land in the same partition.
type Kafka struct {
	publisher Publisher
}

func NewKafka(publisher Publisher) *Kafka {
	return &Kafka{publisher: publisher}
}

func (*Kafka) Slug() string { return SlugKafka }

func (k *Kafka) Send(ctx context.Context, recordID id.RecordID, record *models.Record, alertMeta map[string]string) error {
	payload := webhookPayload{
		RecordID:   recordID.String(),
		Summary:    record.Summary,
		Connector:  record.Connector,
		Context:    record.Context,
		Action:     record.Action,
		Author:     record.AuthorMeta[models.MetaUserLogin],
		Created:    record.Created.UTC().Format("2006-01-02T15:04:05.000Z"),
		AlertID:    alertMeta["alert_id"],
		Meta:       record.StreamMeta,
		AuthorMeta: record.AuthorMeta,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	if err := k.publisher.Publish(ctx, []byte(recordID.String()), value); err != nil {
		return fmt.Errorf("publish alert message: %w", err)
	}
	return nil
}

func (k *Kafka) IsAvailable() bool { return k.publisher != nil }

func (*Kafka) ConfigFields() []string { return nil }
