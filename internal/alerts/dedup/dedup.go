// Package dedup guards against repeat notifications for the same
// (alert, record) pair. The matching engine is at-least-once by
// contract; attaching a Deduper at the notifier boundary tightens
// delivery to at-most-once per pair.
package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "streamlog/pkg/domain"
)

// Deduper claims a (alert, record) pair before a notifier runs.
type Deduper interface {
	// Claim returns true exactly once per pair per retention window;
	// later claims for the same pair return false.
	Claim(ctx context.Context, alertID id.AlertID, recordID id.RecordID) (bool, error)
}

func pairKey(alertID id.AlertID, recordID id.RecordID) string {
	return fmt.Sprintf("alert:sent:%s:%s", alertID, recordID)
}

// Memory is a process-local deduper with lazy expiry. Suitable for
// single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Memory{claimed: make(map[string]time.Time), ttl: ttl}
}

func (m *Memory) Claim(_ context.Context, alertID id.AlertID, recordID id.RecordID) (bool, error) {
	key := pairKey(alertID, recordID)
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, ok := m.claimed[key]; ok && now.Before(expiry) {
		return false, nil
	}
	// Opportunistic sweep so long-lived processes don't accumulate
	// expired claims.
	for k, expiry := range m.claimed {
		if now.After(expiry) {
			delete(m.claimed, k)
		}
	}
	m.claimed[key] = now.Add(m.ttl)
	return true, nil
}
