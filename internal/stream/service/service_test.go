package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"streamlog/internal/stream/connectors"
	"streamlog/internal/stream/exclude"
	"streamlog/internal/stream/models"
	"streamlog/internal/stream/store/memory"
	"streamlog/internal/stream/timer"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
	"streamlog/pkg/requestcontext"
)

type notifierCall struct {
	recordID id.RecordID
	record   *models.Record
}

type fakeNotifier struct {
	calls []notifierCall
}

func (n *fakeNotifier) CheckRecord(_ context.Context, recordID id.RecordID, record *models.Record) {
	n.calls = append(n.calls, notifierCall{recordID: recordID, record: record})
}

type failingRuleStore struct{}

func (failingRuleStore) List(context.Context) ([]models.ExclusionRule, error) {
	return nil, errors.New("rule store down")
}
func (failingRuleStore) Put(context.Context, models.ExclusionRule) error { return nil }
func (failingRuleStore) Delete(context.Context, id.RuleID) error         { return nil }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 123_456_789, time.UTC)

type LoggerSuite struct {
	suite.Suite
	records  *memory.RecordStore
	rules    *memory.RuleStore
	notifier *fakeNotifier
	service  *Service
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.records = memory.NewRecordStore()
	s.rules = memory.NewRuleStore()
	s.notifier = &fakeNotifier{}

	var err error
	s.service, err = New(s.records, s.rules,
		WithNotifier(s.notifier),
		withClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)
}

func (s *LoggerSuite) userCtx() context.Context {
	ctx := requestcontext.WithUser(context.Background(), requestcontext.UserInfo{
		ID:          12,
		Login:       "jsmith",
		Email:       "jsmith@example.com",
		DisplayName: "J. Smith",
		Roles:       []string{"editor"},
		RoleLabel:   "Editor",
	})
	ctx = requestcontext.WithClientIP(ctx, "192.0.2.10")
	return requestcontext.WithAgent(ctx, requestcontext.AgentREST)
}

func (s *LoggerSuite) TestNew() {
	s.Run("nil record store returns error", func() {
		_, err := New(nil, s.rules)
		s.Error(err)
		s.Contains(err.Error(), "record store is required")
	})

	s.Run("nil rule store returns error", func() {
		_, err := New(s.records, nil)
		s.Error(err)
		s.Contains(err.Error(), "rule store is required")
	})
}

func (s *LoggerSuite) TestLogBasicEvent() {
	recordID, err := s.service.Log(s.userCtx(), Entry{
		Connector: "posts",
		Context:   "post",
		Action:    "updated",
		Message:   "%1$s updated the post %2$s",
		Args:      []any{"J. Smith", "Hello World"},
		ObjectID:  42,
		Meta: map[string]any{
			"new_status": "publish",
			"old_status": "draft",
			"revision":   7,
			"ghost":      nil,
		},
	})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)

	s.Equal("J. Smith updated the post Hello World", record.Summary)
	s.Equal("posts", record.Connector)
	s.Equal("post", record.Context)
	s.Equal("updated", record.Action)
	s.Equal(int64(42), record.ObjectID)
	s.Equal(id.UserID(12), record.AuthorID)
	s.Equal("editor", record.AuthorRole)
	s.Equal("192.0.2.10", record.IP)
	s.Equal(models.VisibilityPublished, record.Visibility)
	s.Equal(models.TypeStream, record.Type)
	s.Equal(int64(1), record.SiteID)
	s.Equal(int64(1), record.BlogID)

	// Created is truncated to millisecond precision in UTC.
	s.Equal(fixedNow.Truncate(time.Millisecond), record.Created)

	s.Equal("jsmith", record.AuthorMeta[models.MetaUserLogin])
	s.Equal("jsmith@example.com", record.AuthorMeta[models.MetaUserEmail])
	s.Equal("J. Smith", record.AuthorMeta[models.MetaDisplayName])
	s.Equal("Editor", record.AuthorMeta[models.MetaUserRoleLabel])
	s.Equal("rest", record.AuthorMeta[models.MetaAgent])

	// Null values dropped, the rest stringified in sorted key order.
	s.Equal([]string{"new_status", "old_status", "revision"}, record.StreamMeta.Keys())
	revision, _ := record.StreamMeta.Get("revision")
	s.Equal("7", revision)

	s.Require().Len(s.notifier.calls, 1)
	s.Equal(recordID, s.notifier.calls[0].recordID)
}

func (s *LoggerSuite) TestLogValidatesEntry() {
	_, err := s.service.Log(s.userCtx(), Entry{Message: "no connector"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Log(s.userCtx(), Entry{Connector: "posts"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	s.Equal(0, s.records.Len())
	s.Empty(s.notifier.calls)
}

func (s *LoggerSuite) TestExclusionMarksPrivate() {
	author := id.UserID(12)
	s.Require().NoError(s.rules.Put(context.Background(), models.ExclusionRule{
		ID:        id.NewRuleID(),
		Connector: "posts",
		Author:    &author,
	}))

	recordID, err := s.service.Log(s.userCtx(), Entry{
		Connector: "posts",
		Action:    "updated",
		Message:   "excluded event",
	})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	s.Equal(models.VisibilityPrivate, record.Visibility)

	// Excluded records are still stored and still reach the notifier.
	s.Len(s.notifier.calls, 1)
}

func (s *LoggerSuite) TestNonMatchingRuleStaysPublished() {
	s.Require().NoError(s.rules.Put(context.Background(), models.ExclusionRule{
		ID:        id.NewRuleID(),
		Connector: "users",
	}))

	recordID, err := s.service.Log(s.userCtx(), Entry{
		Connector: "posts",
		Message:   "event",
	})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	s.Equal(models.VisibilityPublished, record.Visibility)
}

func (s *LoggerSuite) TestRuleStoreOutageFailsOpen() {
	svc, err := New(s.records, failingRuleStore{},
		WithNotifier(s.notifier),
		withClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)

	recordID, err := svc.Log(s.userCtx(), Entry{Connector: "posts", Message: "event"})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	s.Equal(models.VisibilityPublished, record.Visibility)
}

func (s *LoggerSuite) TestCronSkippedByDefault() {
	ctx := requestcontext.WithAgent(context.Background(), requestcontext.AgentCron)

	_, err := s.service.Log(ctx, Entry{Connector: "cron", Message: "job ran"})
	s.ErrorIs(err, ErrSkipped)
	s.Equal(0, s.records.Len())
	s.Empty(s.notifier.calls)
}

func (s *LoggerSuite) TestCronLoggedWhenTrackingEnabled() {
	svc, err := New(s.records, s.rules,
		WithCronTracking(true),
		withClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)

	ctx := requestcontext.WithAgent(context.Background(), requestcontext.AgentCron)
	recordID, err := svc.Log(ctx, Entry{Connector: "cron", Message: "job ran"})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	s.Equal("cron", record.AuthorMeta[models.MetaAgent])
	s.Equal(id.UserID(0), record.AuthorID)
}

func (s *LoggerSuite) TestConnectorTogglesSkip() {
	reg := connectors.New(nil)
	s.Require().NoError(reg.Register(connectors.Posts()))
	reg.SetLoggingEnabled("posts", "", "", false)

	svc, err := New(s.records, s.rules,
		WithConnectors(reg),
		withClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)

	_, err = svc.Log(s.userCtx(), Entry{Connector: "posts", Message: "event"})
	s.ErrorIs(err, ErrSkipped)

	// Other connectors are unaffected.
	_, err = svc.Log(s.userCtx(), Entry{Connector: "users", Message: "event"})
	s.NoError(err)
}

func (s *LoggerSuite) TestStrictModeSurfacesFormatMismatch() {
	svc, err := New(s.records, s.rules,
		WithDevMode(true),
		withClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)

	_, err = svc.Log(s.userCtx(), Entry{
		Connector: "posts",
		Message:   "Updated %s by %s",
		Args:      []any{"only-one"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Equal(0, s.records.Len())
}

func (s *LoggerSuite) TestLenientModeDegrades() {
	recordID, err := s.service.Log(s.userCtx(), Entry{
		Connector: "posts",
		Message:   "Updated %s by %s",
		Args:      []any{"only-one"},
	})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	s.Equal("Updated only-one by ", record.Summary)
}

func (s *LoggerSuite) TestUserIDOverride() {
	target := id.UserID(99)
	recordID, err := s.service.Log(s.userCtx(), Entry{
		Connector: "users",
		Action:    "password-reset",
		Message:   "password reset",
		UserID:    &target,
	})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	s.Equal(target, record.AuthorID)
	// Author meta still reflects the acting user from the context.
	s.Equal("jsmith", record.AuthorMeta[models.MetaUserLogin])
}

func (s *LoggerSuite) TestTransactionTimingMeta() {
	tx := timer.New()
	tx.Start()
	ctx := timer.WithTransaction(s.userCtx(), tx)

	recordID, err := s.service.Log(ctx, Entry{Connector: "posts", Message: "event"})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)

	for _, key := range []string{
		models.MetaTransactionStart,
		models.MetaTransactionStop,
		models.MetaTransactionTime,
	} {
		_, ok := record.StreamMeta.Get(key)
		s.True(ok, "missing %s", key)
	}
}

func (s *LoggerSuite) TestNoTimerNoTimingMeta() {
	recordID, err := s.service.Log(s.userCtx(), Entry{Connector: "posts", Message: "event"})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	_, ok := record.StreamMeta.Get(models.MetaTransactionStart)
	s.False(ok)
}

func (s *LoggerSuite) TestIsRecordExcluded() {
	s.Require().NoError(s.rules.Put(context.Background(), models.ExclusionRule{
		ID:        id.NewRuleID(),
		Connector: "posts",
		Role:      "subscriber",
	}))

	excluded, err := s.service.IsRecordExcluded(context.Background(), exclude.Fields{
		Connector:  "posts",
		AuthorRole: "subscriber",
	})
	s.Require().NoError(err)
	s.True(excluded)

	excluded, err = s.service.IsRecordExcluded(context.Background(), exclude.Fields{
		Connector:  "posts",
		AuthorRole: "editor",
	})
	s.Require().NoError(err)
	s.False(excluded)

	_, err = s.service.IsRecordExcluded(context.Background(), exclude.Fields{})
	s.NoError(err)
}

func (s *LoggerSuite) TestBacktraceMeta() {
	svc, err := New(s.records, s.rules,
		WithBacktraces(true),
		withClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)

	recordID, err := svc.Log(s.userCtx(), Entry{Connector: "posts", Message: "event"})
	s.Require().NoError(err)

	record, err := s.records.Get(context.Background(), recordID)
	s.Require().NoError(err)
	trace, ok := record.StreamMeta.Get(MetaBacktrace)
	s.True(ok)
	s.Contains(trace, "goroutine")
}
