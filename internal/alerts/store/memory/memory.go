// Package memory provides an in-memory alert store for tests and
// development.
package memory

import (
	"context"
	"sync"

	"streamlog/internal/alerts/models"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

type Store struct {
	mu     sync.RWMutex
	alerts map[id.AlertID]*models.Alert
	order  []id.AlertID
}

func New() *Store {
	return &Store{alerts: make(map[id.AlertID]*models.Alert)}
}

func (s *Store) ListEnabled(_ context.Context) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Alert
	for _, alertID := range s.order {
		if alert := s.alerts[alertID]; alert.Enabled() {
			out = append(out, alert.Clone())
		}
	}
	return out, nil
}

func (s *Store) List(_ context.Context) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Alert, 0, len(s.order))
	for _, alertID := range s.order {
		out = append(out, s.alerts[alertID].Clone())
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, alertID id.AlertID) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alert, ok := s.alerts[alertID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
	}
	return alert.Clone(), nil
}

func (s *Store) Put(_ context.Context, alert *models.Alert) error {
	if alert == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "alert is required")
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[alert.ID]; !ok {
		s.order = append(s.order, alert.ID)
	}
	s.alerts[alert.ID] = alert.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, alertID id.AlertID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[alertID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "alert not found")
	}
	delete(s.alerts, alertID)
	for i, existing := range s.order {
		if existing == alertID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
