// Package service implements the record logging pipeline: normalize
// the event, apply exclusion rules, stamp transaction timing, persist,
// then hand the stored record to the alert engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/user"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"streamlog/internal/platform/metrics"
	"streamlog/internal/stream/connectors"
	"streamlog/internal/stream/exclude"
	"streamlog/internal/stream/format"
	"streamlog/internal/stream/models"
	"streamlog/internal/stream/store"
	"streamlog/internal/stream/timer"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
	"streamlog/pkg/requestcontext"
)

// ErrSkipped reports that an event was dropped before persistence by
// policy (logging toggled off, or background-job tracking disabled).
// Not an error condition for callers; ingest maps it to an accepted
// no-op.
var ErrSkipped = errors.New("record skipped")

// MetaBacktrace carries the capture-site stack when backtraces are on.
const MetaBacktrace = "backtrace"

// Notifier receives each persisted record. The alert engine implements
// it; notification failures stay inside the notifier and never affect
// the already-persisted record.
type Notifier interface {
	CheckRecord(ctx context.Context, recordID id.RecordID, record *models.Record)
}

// Entry is one event submitted for logging.
type Entry struct {
	Connector string
	Context   string
	Action    string
	// Message is a printf-style summary template; Args are substituted
	// into it. Sequential (%s) and positional (%1$s) directives both
	// work.
	Message string
	Args    []any
	// Meta is arbitrary event metadata. Nil values are dropped, the rest
	// stringified per the storage contract.
	Meta     map[string]any
	ObjectID int64
	// UserID overrides the context's acting user when set. Used by
	// connectors that attribute an event to someone other than the
	// caller (e.g. a password reset performed on another account).
	UserID *id.UserID
}

// Service is the record logger.
type Service struct {
	records    store.RecordStore
	rules      store.RuleStore
	connectors *connectors.Registry
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	devMode      bool
	cronTracking bool
	backtraces   bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNotifier attaches the alert engine. Without one, records persist
// and nothing more happens.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithConnectors attaches the connector registry so per-connector
// logging toggles apply. Without one, every event is logged.
func WithConnectors(r *connectors.Registry) Option {
	return func(s *Service) { s.connectors = r }
}

// WithDevMode makes summary formatting strict: an argument mismatch in
// a connector's message template fails the log call instead of
// degrading silently.
func WithDevMode(enabled bool) Option {
	return func(s *Service) { s.devMode = enabled }
}

// WithCronTracking controls whether background-job events are logged.
// Off by default; scheduled jobs are noisy.
func WithCronTracking(enabled bool) Option {
	return func(s *Service) { s.cronTracking = enabled }
}

// WithBacktraces stamps each record's meta with the capture-site stack.
// Development aid, off by default.
func WithBacktraces(enabled bool) Option {
	return func(s *Service) { s.backtraces = enabled }
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(records store.RecordStore, rules store.RuleStore, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rule store is required")
	}

	s := &Service{
		records: records,
		rules:   rules,
		logger:  slog.Default(),
		tracer:  otel.Tracer("streamlog/stream"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Log runs one event through the pipeline and returns the persisted
// record's id. ErrSkipped means the event was dropped by policy before
// persistence. Any other error means nothing was stored.
func (s *Service) Log(ctx context.Context, entry Entry) (id.RecordID, error) {
	ctx, span := s.tracer.Start(ctx, "stream.Log",
		trace.WithAttributes(
			attribute.String("connector", entry.Connector),
			attribute.String("action", entry.Action),
		))
	defer span.End()

	if entry.Connector == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "connector is required")
	}
	if entry.Message == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "message is required")
	}

	if s.connectors != nil && !s.connectors.IsLoggingEnabled(entry.Connector, entry.Context, entry.Action) {
		s.skip(ctx, entry, "logging disabled for connector")
		return 0, ErrSkipped
	}

	agent := requestcontext.AgentKind(ctx)
	if agent.IsBackground() && !s.cronTracking {
		s.skip(ctx, entry, "background job tracking disabled")
		return 0, ErrSkipped
	}

	record, err := s.buildRecord(ctx, entry, agent)
	if err != nil {
		return 0, err
	}

	rules, err := s.rules.List(ctx)
	if err != nil {
		// Exclusion is a viewing policy; a rule store outage must not
		// lose audit data. Fail open to published.
		s.logger.ErrorContext(ctx, "failed to load exclusion rules, logging as published",
			"error", err,
			"connector", entry.Connector,
		)
	} else if exclude.IsExcluded(excludeFields(record), rules) {
		record.Visibility = models.VisibilityPrivate
		if s.metrics != nil {
			s.metrics.RecordsExcluded.Inc()
		}
	}

	if tx, ok := timer.FromContext(ctx); ok {
		tx.MarkAndReset(record.StreamMeta)
	}

	recordID, err := s.records.Insert(ctx, record)
	if err != nil {
		if s.metrics != nil {
			s.metrics.InsertFailures.Inc()
		}
		return 0, fmt.Errorf("insert record: %w", err)
	}
	record.ID = recordID

	if s.metrics != nil {
		s.metrics.RecordsLogged.WithLabelValues(entry.Connector).Inc()
	}
	s.logger.DebugContext(ctx, "record logged",
		"record_id", recordID,
		"connector", record.Connector,
		"context", record.Context,
		"action", record.Action,
		"visibility", record.Visibility,
	)

	// The record is durable at this point. Alert evaluation happens
	// after and its failures stay inside the engine.
	if s.notifier != nil {
		s.notifier.CheckRecord(ctx, recordID, record)
	}
	return recordID, nil
}

// IsRecordExcluded is a pre-flight check for expensive events: it
// reports whether the candidate would be marked private, without
// logging anything.
func (s *Service) IsRecordExcluded(ctx context.Context, fields exclude.Fields) (bool, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return false, fmt.Errorf("load exclusion rules: %w", err)
	}
	return exclude.IsExcluded(fields, rules), nil
}

func (s *Service) skip(ctx context.Context, entry Entry, reason string) {
	if s.metrics != nil {
		s.metrics.RecordsSkipped.Inc()
	}
	s.logger.DebugContext(ctx, "record skipped",
		"reason", reason,
		"connector", entry.Connector,
		"context", entry.Context,
		"action", entry.Action,
	)
}

func (s *Service) buildRecord(ctx context.Context, entry Entry, agent requestcontext.Agent) (*models.Record, error) {
	summary, err := format.Summary(entry.Message, entry.Args, s.devMode)
	if err != nil {
		return nil, err
	}

	userInfo, _ := requestcontext.User(ctx)
	authorID := userInfo.ID
	if entry.UserID != nil {
		authorID = *entry.UserID
	}

	record := &models.Record{
		ObjectID:   entry.ObjectID,
		SiteID:     requestcontext.SiteID(ctx),
		BlogID:     requestcontext.BlogID(ctx),
		AuthorID:   authorID,
		AuthorRole: userInfo.FirstRole(),
		AuthorMeta: authorMeta(userInfo, agent),
		Created:    s.now().UTC().Truncate(time.Millisecond),
		Visibility: models.VisibilityPublished,
		Type:       models.TypeStream,
		Summary:    summary,
		Connector:  entry.Connector,
		Context:    entry.Context,
		Action:     entry.Action,
		StreamMeta: streamMeta(entry.Meta),
		IP:         requestcontext.ClientIP(ctx),
	}

	if s.backtraces {
		buf := make([]byte, 16*1024)
		record.StreamMeta.Set(MetaBacktrace, string(buf[:runtime.Stack(buf, false)]))
	}
	return record, nil
}

// authorMeta captures who acted, denormalized so records stay readable
// after the account changes or disappears.
func authorMeta(userInfo requestcontext.UserInfo, agent requestcontext.Agent) map[string]string {
	meta := map[string]string{
		models.MetaUserEmail:     userInfo.Email,
		models.MetaDisplayName:   userInfo.DisplayName,
		models.MetaUserLogin:     userInfo.Login,
		models.MetaUserRoleLabel: userInfo.RoleLabel,
		models.MetaAgent:         agent.String(),
	}
	if agent == requestcontext.AgentCLI {
		if u, err := user.Current(); err == nil {
			meta[models.MetaSystemUserID] = u.Uid
			meta[models.MetaSystemUserName] = u.Username
		}
	}
	return meta
}

// streamMeta normalizes caller metadata: nil values are dropped, the
// rest stringified, keys stored in sorted order for stable output.
func streamMeta(raw map[string]any) *models.Meta {
	meta := models.NewMeta()
	if len(raw) == 0 {
		return meta
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v, ok := format.Stringify(raw[k]); ok {
			meta.Set(k, v)
		}
	}
	return meta
}

func excludeFields(record *models.Record) exclude.Fields {
	return exclude.Fields{
		Connector:  record.Connector,
		Context:    record.Context,
		Action:     record.Action,
		IP:         record.IP,
		AuthorID:   record.AuthorID,
		AuthorRole: record.AuthorRole,
	}
}
