// Package postgres persists alert definitions in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"streamlog/internal/alerts/models"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alerts (
			id         UUID PRIMARY KEY,
			status     TEXT NOT NULL DEFAULT 'disabled',
			author     BIGINT NOT NULL DEFAULT 0,
			created    TIMESTAMPTZ NOT NULL DEFAULT now(),
			triggers   JSONB NOT NULL DEFAULT '{}',
			alert_type TEXT NOT NULL,
			alert_meta JSONB NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS alerts_status_idx ON alerts (status);
	`)
	if err != nil {
		return fmt.Errorf("ensure alerts schema: %w", err)
	}
	return nil
}

const selectAlert = `
	SELECT id, status, author, created, triggers, alert_type, alert_meta
	FROM alerts`

func (s *Store) ListEnabled(ctx context.Context) ([]*models.Alert, error) {
	return s.list(ctx, selectAlert+` WHERE status = $1 ORDER BY created, id`,
		string(models.StatusEnabled))
}

func (s *Store) List(ctx context.Context) ([]*models.Alert, error) {
	return s.list(ctx, selectAlert+` ORDER BY created, id`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, alertID id.AlertID) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, selectAlert+` WHERE id = $1`, uuid.UUID(alertID))
	alert, err := scanAlert(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return alert, nil
}

func (s *Store) Put(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "alert is required")
	}
	if err := alert.Validate(); err != nil {
		return err
	}

	triggers, err := json.Marshal(alert.Triggers)
	if err != nil {
		return fmt.Errorf("marshal alert triggers: %w", err)
	}
	meta, err := json.Marshal(alert.AlertMeta)
	if err != nil {
		return fmt.Errorf("marshal alert meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, status, author, created, triggers, alert_type, alert_meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status     = EXCLUDED.status,
			triggers   = EXCLUDED.triggers,
			alert_type = EXCLUDED.alert_type,
			alert_meta = EXCLUDED.alert_meta
	`,
		uuid.UUID(alert.ID),
		string(alert.Status),
		int64(alert.Author),
		alert.Created,
		triggers,
		alert.AlertType,
		meta,
	)
	if err != nil {
		return fmt.Errorf("put alert: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, alertID id.AlertID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, uuid.UUID(alertID))
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "alert not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		alert    models.Alert
		alertID  uuid.UUID
		status   string
		author   int64
		triggers []byte
		meta     []byte
	)
	err := row.Scan(&alertID, &status, &author, &alert.Created, &triggers,
		&alert.AlertType, &meta)
	if err != nil {
		return nil, err
	}
	alert.ID = id.AlertID(alertID)
	alert.Status = models.Status(status)
	alert.Author = id.UserID(author)
	alert.Created = alert.Created.UTC()
	if len(triggers) > 0 {
		if err := json.Unmarshal(triggers, &alert.Triggers); err != nil {
			return nil, fmt.Errorf("decode alert triggers: %w", err)
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &alert.AlertMeta); err != nil {
			return nil, fmt.Errorf("decode alert meta: %w", err)
		}
	}
	return &alert, nil
}
