package types

import (
	"context"
	"fmt"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

const SlugHighlight = "highlight"

// MetaAppender appends a value onto a record's stored meta. Satisfied
// by the record stores.
type MetaAppender interface {
	AppendMeta(ctx context.Context, recordID id.RecordID, key, value string) error
}

// Highlight marks matched records by writing the triggering alert's ID
// into the record's stored meta, so readers can surface them without a
// join against alert history.
type Highlight struct {
	records MetaAppender
}

func NewHighlight(records MetaAppender) *Highlight {
	return &Highlight{records: records}
}

func (*Highlight) Slug() string { return SlugHighlight }

func (h *Highlight) Send(ctx context.Context, recordID id.RecordID, _ *models.Record, alertMeta map[string]string) error {
	alertID := alertMeta["alert_id"]
	if alertID == "" {
		alertID = SlugHighlight
	}
	if err := h.records.AppendMeta(ctx, recordID, models.MetaAlertsTriggered, alertID); err != nil {
		return fmt.Errorf("highlight record %s: %w", recordID, err)
	}
	return nil
}

func (h *Highlight) IsAvailable() bool { return h.records != nil }

func (*Highlight) ConfigFields() []string { return []string{"alert_id", "color"} }
