package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

// RuleStore implements store.RuleStore.
type RuleStore struct {
	db *sql.DB
}

func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

func (s *RuleStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS exclusion_rules (
			id         UUID PRIMARY KEY,
			connector  TEXT NOT NULL DEFAULT '',
			context    TEXT NOT NULL DEFAULT '',
			action     TEXT NOT NULL DEFAULT '',
			ip_address TEXT NOT NULL DEFAULT '',
			author     BIGINT,
			role       TEXT NOT NULL DEFAULT '',
			created    TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure exclusion_rules schema: %w", err)
	}
	return nil
}

func (s *RuleStore) List(ctx context.Context) ([]models.ExclusionRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, connector, context, action, ip_address, author, role
		FROM exclusion_rules
		ORDER BY created, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list exclusion rules: %w", err)
	}
	defer rows.Close()

	var out []models.ExclusionRule
	for rows.Next() {
		var (
			rule   models.ExclusionRule
			ruleID uuid.UUID
			author sql.NullInt64
		)
		if err := rows.Scan(&ruleID, &rule.Connector, &rule.Context, &rule.Action,
			&rule.IPAddress, &author, &rule.Role); err != nil {
			return nil, fmt.Errorf("scan exclusion rule: %w", err)
		}
		rule.ID = id.RuleID(ruleID)
		if author.Valid {
			uid := id.UserID(author.Int64)
			rule.Author = &uid
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (s *RuleStore) Put(ctx context.Context, rule models.ExclusionRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "rule id is required")
	}

	var author sql.NullInt64
	if rule.Author != nil {
		author = sql.NullInt64{Int64: int64(*rule.Author), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exclusion_rules (id, connector, context, action, ip_address, author, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			connector  = EXCLUDED.connector,
			context    = EXCLUDED.context,
			action     = EXCLUDED.action,
			ip_address = EXCLUDED.ip_address,
			author     = EXCLUDED.author,
			role       = EXCLUDED.role
	`,
		uuid.UUID(rule.ID), rule.Connector, rule.Context, rule.Action,
		rule.IPAddress, author, rule.Role,
	)
	if err != nil {
		return fmt.Errorf("put exclusion rule: %w", err)
	}
	return nil
}

func (s *RuleStore) Delete(ctx context.Context, ruleID id.RuleID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM exclusion_rules WHERE id = $1`, uuid.UUID(ruleID))
	if err != nil {
		return fmt.Errorf("delete exclusion rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	return nil
}
