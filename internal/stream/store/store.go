// Package store defines persistence contracts for stream records and
// exclusion rules. Implementations own retry/backoff policy; the logger
// treats a failed insert as final.
package store

import (
	"context"
	"time"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

// RecordStore persists activity records.
type RecordStore interface {
	// Insert stores a record and returns its assigned id. Ids are
	// monotonic within one store so records can be ordered.
	Insert(ctx context.Context, record *models.Record) (id.RecordID, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Query(ctx context.Context, q RecordQuery) ([]*models.Record, error)
	// AppendMeta adds a value to a list-valued stream meta key, used by
	// alert types for per-record bookkeeping (alerts_triggered).
	AppendMeta(ctx context.Context, recordID id.RecordID, key, value string) error
}

// RuleStore persists exclusion rules.
type RuleStore interface {
	List(ctx context.Context) ([]models.ExclusionRule, error)
	Put(ctx context.Context, rule models.ExclusionRule) error
	Delete(ctx context.Context, ruleID id.RuleID) error
}

// RecordQuery filters record listings. Zero-valued fields are ignored.
// Only published records are returned unless Visibility is set
// explicitly.
type RecordQuery struct {
	Connector  string
	Context    string
	Action     string
	Author     *id.UserID
	Visibility models.Visibility
	Since      time.Time
	Until      time.Time
	Limit      int
}
