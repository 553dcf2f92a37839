// Package timer measures wall-clock transaction time for a single
// request. The host adapter arms one Transaction per request and clears
// it at teardown; the logger stamps every record it persists in
// between.
package timer

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"streamlog/internal/stream/models"
)

// Transaction tracks the elapsed time since the request (or the
// previous log call) started. Safe for concurrent use, though a
// request logs sequentially in practice.
type Transaction struct {
	mu      sync.Mutex
	start   time.Time
	started bool
}

// New returns an unarmed transaction timer. Records pass through
// untouched until Start is called.
func New() *Transaction { return &Transaction{} }

// Start arms the timer, or re-arms it when already running. Re-arming
// simply resets the start point; it is how sub-intervals are measured
// for bulk actions within one request.
func (t *Transaction) Start() {
	t.startAt(time.Now())
}

func (t *Transaction) startAt(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = now
	t.started = true
}

// Reset clears the timer at end of request. No state survives across
// requests.
func (t *Transaction) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = time.Time{}
	t.started = false
}

// MarkAndReset stamps meta with transaction_start, transaction_stop
// (unix seconds) and transaction_time (milliseconds, from seconds
// rounded to 3 decimal places), then immediately re-arms so the next
// record in the same request measures the interval since this one.
// Unarmed timers leave meta unmodified.
func (t *Transaction) MarkAndReset(meta *models.Meta) {
	t.markAndResetAt(time.Now(), meta)
}

func (t *Transaction) markAndResetAt(stop time.Time, meta *models.Meta) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return
	}

	elapsed := stop.Sub(t.start).Seconds()
	millis := int64(math.Round(elapsed*1000)) // round(s, 3) * 1000

	meta.Set(models.MetaTransactionStart, unixSeconds(t.start))
	meta.Set(models.MetaTransactionStop, unixSeconds(stop))
	meta.Set(models.MetaTransactionTime, strconv.FormatInt(millis, 10))

	t.start = stop
}

func unixSeconds(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

type ctxKey struct{}

// WithTransaction attaches a per-request transaction timer to the
// context.
func WithTransaction(ctx context.Context, t *Transaction) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext retrieves the request's transaction timer, if armed by
// the host adapter.
func FromContext(ctx context.Context) (*Transaction, bool) {
	t, ok := ctx.Value(ctxKey{}).(*Transaction)
	return t, ok
}
