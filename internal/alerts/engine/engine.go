// Package engine evaluates alert definitions against newly persisted
// records and dispatches notifications for matches.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"streamlog/internal/alerts/dedup"
	alertModels "streamlog/internal/alerts/models"
	"streamlog/internal/alerts/registry"
	"streamlog/internal/alerts/store"
	"streamlog/internal/platform/metrics"
	streamModels "streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

const defaultSendTimeout = 10 * time.Second

// Engine checks each persisted record against enabled alerts. It is
// invoked synchronously after insert; every failure it encounters is
// reported, never propagated; the record's persistence is final by the
// time the engine runs.
type Engine struct {
	alerts      store.Store
	registry    *registry.Registry
	logger      *slog.Logger
	metrics     *metrics.Metrics
	deduper     dedup.Deduper
	sendTimeout time.Duration
	tracer      trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithDeduper tightens delivery to at-most-once per (alert, record).
func WithDeduper(d dedup.Deduper) Option {
	return func(e *Engine) { e.deduper = d }
}

// WithSendTimeout bounds each notifier call so one slow alert type
// cannot stall event producers.
func WithSendTimeout(d time.Duration) Option {
	return func(e *Engine) { e.sendTimeout = d }
}

func New(alerts store.Store, reg *registry.Registry, opts ...Option) (*Engine, error) {
	if alerts == nil {
		return nil, fmt.Errorf("alert store is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("alert registry is required")
	}

	e := &Engine{
		alerts:      alerts,
		registry:    reg,
		logger:      slog.Default(),
		sendTimeout: defaultSendTimeout,
		tracer:      otel.Tracer("streamlog/alerts"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// CheckRecord evaluates all enabled alerts against one record. Matched
// alerts fire their notifier; each alert is isolated so one failure
// never blocks the rest.
func (e *Engine) CheckRecord(ctx context.Context, recordID id.RecordID, record *streamModels.Record) {
	ctx, span := e.tracer.Start(ctx, "alerts.CheckRecord",
		trace.WithAttributes(attribute.String("record_id", recordID.String())))
	defer span.End()

	enabled, err := e.alerts.ListEnabled(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to list enabled alerts",
			"error", err,
			"record_id", recordID,
		)
		return
	}

	for _, alert := range enabled {
		e.evaluate(ctx, alert, recordID, record)
	}
}

// evaluate matches and fires one alert under a recover. Triggers are
// contributed implementations, so a panic in Matches must stay inside
// the alert's own evaluation, same as a notifier panic.
func (e *Engine) evaluate(ctx context.Context, alert *alertModels.Alert, recordID id.RecordID, record *streamModels.Record) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "alert evaluation panicked",
				"panic", r,
				"alert_id", alert.ID,
				"record_id", recordID,
			)
		}
	}()

	if !e.alertMatches(ctx, alert, record) {
		return
	}
	e.fire(ctx, alert, recordID, record)
}

// alertMatches applies AND semantics over the alert's triggers. An
// alert with no triggers never matches: alerting on everything must be
// expressed explicitly, not by omission.
func (e *Engine) alertMatches(ctx context.Context, alert *alertModels.Alert, record *streamModels.Record) bool {
	if len(alert.Triggers) == 0 {
		return false
	}
	for slug, value := range alert.Triggers {
		trigger, ok := e.registry.Trigger(slug)
		if !ok {
			e.logger.WarnContext(ctx, "alert references unknown trigger",
				"alert_id", alert.ID,
				"trigger", slug,
			)
			return false
		}
		if !trigger.Matches(record, value) {
			return false
		}
	}
	return true
}

func (e *Engine) fire(ctx context.Context, alert *alertModels.Alert, recordID id.RecordID, record *streamModels.Record) {
	alertType, ok := e.registry.AlertType(alert.AlertType)
	if !ok {
		e.logger.WarnContext(ctx, "alert references unknown alert type",
			"alert_id", alert.ID,
			"alert_type", alert.AlertType,
		)
		return
	}

	if e.deduper != nil {
		fresh, err := e.deduper.Claim(ctx, alert.ID, recordID)
		if err != nil {
			// Dedup is best effort; fall through to at-least-once.
			e.logger.WarnContext(ctx, "alert dedup claim failed",
				"error", err,
				"alert_id", alert.ID,
				"record_id", recordID,
			)
		} else if !fresh {
			return
		}
	}

	if e.metrics != nil {
		e.metrics.AlertsMatched.WithLabelValues(alert.AlertType).Inc()
	}

	start := time.Now()
	err := e.send(ctx, alertType, alert, recordID, record)
	if e.metrics != nil {
		e.metrics.AlertSendSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.AlertSendFailed.WithLabelValues(alert.AlertType).Inc()
		}
		e.logger.ErrorContext(ctx, "alert notifier failed",
			"error", err,
			"alert_id", alert.ID,
			"alert_type", alert.AlertType,
			"record_id", recordID,
		)
	}
}

// send runs one notifier under the engine's timeout, converting panics
// to errors so a misbehaving alert type stays contained.
func (e *Engine) send(ctx context.Context, alertType registry.AlertType, alert *alertModels.Alert, recordID id.RecordID, record *streamModels.Record) (err error) {
	ctx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()

	// Notifiers get their own meta copy with the alert's identity
	// included, so they can reference it without a store lookup.
	meta := make(map[string]string, len(alert.AlertMeta)+1)
	for k, v := range alert.AlertMeta {
		meta[k] = v
	}
	meta["alert_id"] = alert.ID.String()

	return alertType.Send(ctx, recordID, record.Clone(), meta)
}
