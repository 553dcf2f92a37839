// Package postgres persists stream records and exclusion rules in
// PostgreSQL. Stores are pure I/O; visibility, exclusion and alert
// decisions belong to the services.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"streamlog/internal/stream/models"
	"streamlog/internal/stream/store"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

// RecordStore implements store.RecordStore over database/sql.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// EnsureSchema creates the records table when absent. Deployments with
// managed migrations can skip it. stream_meta is JSON, not JSONB:
// jsonb normalizes object key order and Meta is an ordered map.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stream_records (
			id          BIGSERIAL PRIMARY KEY,
			object_id   BIGINT NOT NULL DEFAULT 0,
			site_id     BIGINT NOT NULL DEFAULT 1,
			blog_id     BIGINT NOT NULL DEFAULT 1,
			author      BIGINT NOT NULL DEFAULT 0,
			author_role TEXT NOT NULL DEFAULT '',
			author_meta JSONB NOT NULL DEFAULT '{}',
			created     TIMESTAMPTZ NOT NULL,
			visibility  TEXT NOT NULL DEFAULT 'published',
			type        TEXT NOT NULL DEFAULT 'stream',
			summary     TEXT NOT NULL DEFAULT '',
			connector   TEXT NOT NULL DEFAULT '',
			context     TEXT NOT NULL DEFAULT '',
			action      TEXT NOT NULL DEFAULT '',
			stream_meta JSON NOT NULL DEFAULT '{}',
			ip          TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS stream_records_connector_idx
			ON stream_records (connector, context, action);
		CREATE INDEX IF NOT EXISTS stream_records_created_idx
			ON stream_records (created);
	`)
	if err != nil {
		return fmt.Errorf("ensure stream_records schema: %w", err)
	}
	return nil
}

func (s *RecordStore) Insert(ctx context.Context, record *models.Record) (id.RecordID, error) {
	if record == nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "record is required")
	}

	authorMeta, err := json.Marshal(record.AuthorMeta)
	if err != nil {
		return 0, fmt.Errorf("marshal author meta: %w", err)
	}
	streamMeta, err := marshalMeta(record.StreamMeta)
	if err != nil {
		return 0, fmt.Errorf("marshal stream meta: %w", err)
	}

	query := `
		INSERT INTO stream_records (
			object_id, site_id, blog_id, author, author_role, author_meta,
			created, visibility, type, summary, connector, context, action,
			stream_meta, ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	var recordID int64
	err = s.db.QueryRowContext(ctx, query,
		record.ObjectID,
		record.SiteID,
		record.BlogID,
		int64(record.AuthorID),
		record.AuthorRole,
		authorMeta,
		record.Created,
		string(record.Visibility),
		record.Type,
		record.Summary,
		record.Connector,
		record.Context,
		record.Action,
		streamMeta,
		record.IP,
	).Scan(&recordID)
	if err != nil {
		return 0, fmt.Errorf("insert stream record: %w", err)
	}
	return id.RecordID(recordID), nil
}

func (s *RecordStore) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE id = $1`, int64(recordID))
	record, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, fmt.Errorf("get stream record: %w", err)
	}
	return record, nil
}

func (s *RecordStore) Query(ctx context.Context, q store.RecordQuery) ([]*models.Record, error) {
	visibility := q.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublished
	}

	query := selectRecord + ` WHERE visibility = $1`
	args := []any{string(visibility)}

	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if q.Connector != "" {
		add("connector =", q.Connector)
	}
	if q.Context != "" {
		add("context =", q.Context)
	}
	if q.Action != "" {
		add("action =", q.Action)
	}
	if q.Author != nil {
		add("author =", int64(*q.Author))
	}
	if !q.Since.IsZero() {
		add("created >=", q.Since)
	}
	if !q.Until.IsZero() {
		add("created <=", q.Until)
	}
	query += " ORDER BY id"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stream records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *RecordStore) AppendMeta(ctx context.Context, recordID id.RecordID, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append meta: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT stream_meta FROM stream_records WHERE id = $1 FOR UPDATE`,
		int64(recordID),
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return fmt.Errorf("append meta: load: %w", err)
	}

	meta := models.NewMeta()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, meta); err != nil {
			return fmt.Errorf("append meta: decode: %w", err)
		}
	}
	if existing, ok := meta.Get(key); ok && existing != "" {
		meta.Set(key, existing+","+value)
	} else {
		meta.Set(key, value)
	}

	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("append meta: encode: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stream_records SET stream_meta = $1 WHERE id = $2`,
		encoded, int64(recordID),
	); err != nil {
		return fmt.Errorf("append meta: update: %w", err)
	}
	return tx.Commit()
}

const selectRecord = `
	SELECT id, object_id, site_id, blog_id, author, author_role, author_meta,
	       created, visibility, type, summary, connector, context, action,
	       stream_meta, ip
	FROM stream_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record     models.Record
		author     int64
		authorMeta []byte
		streamMeta []byte
		visibility string
	)
	err := row.Scan(
		&record.ID,
		&record.ObjectID,
		&record.SiteID,
		&record.BlogID,
		&author,
		&record.AuthorRole,
		&authorMeta,
		&record.Created,
		&visibility,
		&record.Type,
		&record.Summary,
		&record.Connector,
		&record.Context,
		&record.Action,
		&streamMeta,
		&record.IP,
	)
	if err != nil {
		return nil, err
	}
	record.AuthorID = id.UserID(author)
	record.Visibility = models.Visibility(visibility)
	record.Created = record.Created.UTC()
	if len(authorMeta) > 0 {
		if err := json.Unmarshal(authorMeta, &record.AuthorMeta); err != nil {
			return nil, fmt.Errorf("decode author meta: %w", err)
		}
	}
	record.StreamMeta = models.NewMeta()
	if len(streamMeta) > 0 {
		if err := json.Unmarshal(streamMeta, record.StreamMeta); err != nil {
			return nil, fmt.Errorf("decode stream meta: %w", err)
		}
	}
	return &record, nil
}

func marshalMeta(meta *models.Meta) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(meta)
}
