// Package memory provides in-memory stream stores for tests and
// single-node development runs.
package memory

import (
	"context"
	"sync"

	"streamlog/internal/stream/models"
	"streamlog/internal/stream/store"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

// RecordStore keeps records in insertion order behind a mutex.
type RecordStore struct {
	mu      sync.RWMutex
	records []*models.Record
	nextID  id.RecordID
}

func NewRecordStore() *RecordStore {
	return &RecordStore{nextID: 1}
}

func (s *RecordStore) Insert(_ context.Context, record *models.Record) (id.RecordID, error) {
	if record == nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := record.Clone()
	cp.ID = s.nextID
	s.nextID++
	s.records = append(s.records, cp)
	return cp.ID, nil
}

func (s *RecordStore) Get(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == recordID {
			return r.Clone(), nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
}

func (s *RecordStore) Query(_ context.Context, q store.RecordQuery) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visibility := q.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublished
	}

	var out []*models.Record
	for _, r := range s.records {
		if r.Visibility != visibility {
			continue
		}
		if q.Connector != "" && r.Connector != q.Connector {
			continue
		}
		if q.Context != "" && r.Context != q.Context {
			continue
		}
		if q.Action != "" && r.Action != q.Action {
			continue
		}
		if q.Author != nil && r.AuthorID != *q.Author {
			continue
		}
		if !q.Since.IsZero() && r.Created.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && r.Created.After(q.Until) {
			continue
		}
		out = append(out, r.Clone())
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (s *RecordStore) AppendMeta(_ context.Context, recordID id.RecordID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID != recordID {
			continue
		}
		if r.StreamMeta == nil {
			r.StreamMeta = models.NewMeta()
		}
		if existing, ok := r.StreamMeta.Get(key); ok && existing != "" {
			r.StreamMeta.Set(key, existing+","+value)
		} else {
			r.StreamMeta.Set(key, value)
		}
		return nil
	}
	return dErrors.New(dErrors.CodeNotFound, "record not found")
}

// Len returns the number of stored records. Test helper.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RuleStore keeps exclusion rules keyed by id.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[id.RuleID]models.ExclusionRule
	order []id.RuleID
}

func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[id.RuleID]models.ExclusionRule)}
}

func (s *RuleStore) List(_ context.Context) ([]models.ExclusionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ExclusionRule, 0, len(s.order))
	for _, ruleID := range s.order {
		out = append(out, s.rules[ruleID])
	}
	return out, nil
}

func (s *RuleStore) Put(_ context.Context, rule models.ExclusionRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "rule id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		s.order = append(s.order, rule.ID)
	}
	s.rules[rule.ID] = rule
	return nil
}

func (s *RuleStore) Delete(_ context.Context, ruleID id.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	delete(s.rules, ruleID)
	for i, existing := range s.order {
		if existing == ruleID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
