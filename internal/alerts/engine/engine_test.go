package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"streamlog/internal/alerts/dedup"
	alertModels "streamlog/internal/alerts/models"
	"streamlog/internal/alerts/registry"
	"streamlog/internal/alerts/store/memory"
	"streamlog/internal/alerts/triggers"
	streamModels "streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

type sentCall struct {
	recordID id.RecordID
	meta     map[string]string
}

// recordingType captures sends; its behavior is programmable per test.
type recordingType struct {
	slug  string
	calls []sentCall
	fail  error
	panic bool
	block bool
}

func (t *recordingType) Slug() string           { return t.slug }
func (t *recordingType) IsAvailable() bool      { return true }
func (t *recordingType) ConfigFields() []string { return nil }

func (t *recordingType) Send(ctx context.Context, recordID id.RecordID, _ *streamModels.Record, meta map[string]string) error {
	if t.panic {
		panic("notifier exploded")
	}
	if t.block {
		<-ctx.Done()
		return ctx.Err()
	}
	t.calls = append(t.calls, sentCall{recordID: recordID, meta: meta})
	return t.fail
}

type EngineSuite struct {
	suite.Suite
	alerts   *memory.Store
	registry *registry.Registry
	notify   *recordingType
	engine   *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.alerts = memory.New()
	s.registry = registry.New(nil)
	s.Require().NoError(s.registry.RegisterTrigger(triggers.Author{}))
	s.Require().NoError(s.registry.RegisterTrigger(triggers.Action{}))
	s.Require().NoError(s.registry.RegisterTrigger(triggers.Context{}))

	s.notify = &recordingType{slug: "recording"}
	s.Require().NoError(s.registry.RegisterAlertType(s.notify))

	var err error
	s.engine, err = New(s.alerts, s.registry)
	s.Require().NoError(err)
}

func (s *EngineSuite) putAlert(alert *alertModels.Alert) *alertModels.Alert {
	if alert.ID.IsNil() {
		alert.ID = id.NewAlertID()
	}
	if alert.Status == "" {
		alert.Status = alertModels.StatusEnabled
	}
	if alert.AlertType == "" {
		alert.AlertType = "recording"
	}
	alert.Created = time.Now()
	s.Require().NoError(s.alerts.Put(context.Background(), alert))
	return alert
}

func testRecord() *streamModels.Record {
	return &streamModels.Record{
		AuthorID:  5,
		Connector: "posts",
		Context:   "post",
		Action:    "updated",
		Summary:   "post updated",
	}
}

func (s *EngineSuite) TestNew() {
	_, err := New(nil, s.registry)
	s.Error(err)

	_, err = New(s.alerts, nil)
	s.Error(err)
}

func (s *EngineSuite) TestAllTriggersMustMatch() {
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{
		"author": "5",
		"action": "updated",
	}})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Require().Len(s.notify.calls, 1)
	s.Equal(id.RecordID(1), s.notify.calls[0].recordID)
}

func (s *EngineSuite) TestPartialMatchDoesNotFire() {
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{
		"author": "5",
		"action": "deleted",
	}})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Empty(s.notify.calls)
}

func (s *EngineSuite) TestZeroTriggersNeverMatch() {
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{}})
	s.putAlert(&alertModels.Alert{Triggers: nil})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Empty(s.notify.calls)
}

func (s *EngineSuite) TestDisabledAlertSkipped() {
	s.putAlert(&alertModels.Alert{
		Status:   alertModels.StatusDisabled,
		Triggers: map[string]string{"author": "5"},
	})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Empty(s.notify.calls)
}

func (s *EngineSuite) TestUnknownTriggerNeverMatches() {
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{
		"author":      "5",
		"nonexistent": "x",
	}})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Empty(s.notify.calls)
}

func (s *EngineSuite) TestUnknownAlertTypeSkipped() {
	s.putAlert(&alertModels.Alert{
		Triggers:  map[string]string{"author": "5"},
		AlertType: "vanished",
	})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Empty(s.notify.calls)
}

func (s *EngineSuite) TestMetaCarriesAlertID() {
	alert := s.putAlert(&alertModels.Alert{
		Triggers:  map[string]string{"author": "5"},
		AlertMeta: map[string]string{"color": "red"},
	})

	s.engine.CheckRecord(context.Background(), 1, testRecord())
	s.Require().Len(s.notify.calls, 1)
	s.Equal(alert.ID.String(), s.notify.calls[0].meta["alert_id"])
	s.Equal("red", s.notify.calls[0].meta["color"])

	// The stored alert's own meta stays untouched.
	stored, err := s.alerts.Get(context.Background(), alert.ID)
	s.Require().NoError(err)
	s.NotContains(stored.AlertMeta, "alert_id")
}

func (s *EngineSuite) TestNotifierFailureIsolated() {
	failing := &recordingType{slug: "failing", fail: errors.New("smtp down")}
	s.Require().NoError(s.registry.RegisterAlertType(failing))

	s.putAlert(&alertModels.Alert{
		AlertType: "failing",
		Triggers:  map[string]string{"author": "5"},
	})
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{"author": "5"}})

	s.engine.CheckRecord(context.Background(), 1, testRecord())

	// Both ran; the failure of one never blocks the other.
	s.Len(failing.calls, 1)
	s.Len(s.notify.calls, 1)
}

func (s *EngineSuite) TestNotifierPanicContained() {
	panicking := &recordingType{slug: "panicking", panic: true}
	s.Require().NoError(s.registry.RegisterAlertType(panicking))

	s.putAlert(&alertModels.Alert{
		AlertType: "panicking",
		Triggers:  map[string]string{"author": "5"},
	})
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{"author": "5"}})

	s.NotPanics(func() {
		s.engine.CheckRecord(context.Background(), 1, testRecord())
	})
	s.Len(s.notify.calls, 1)
}

// faultyTrigger panics on Matches, standing in for a buggy contributed
// trigger implementation.
type faultyTrigger struct{}

func (faultyTrigger) Slug() string      { return "faulty" }
func (faultyTrigger) IsAvailable() bool { return true }
func (faultyTrigger) Matches(*streamModels.Record, string) bool {
	panic("trigger exploded")
}

func (s *EngineSuite) TestTriggerPanicContained() {
	s.Require().NoError(s.registry.RegisterTrigger(faultyTrigger{}))

	s.putAlert(&alertModels.Alert{Triggers: map[string]string{"faulty": "x"}})
	s.putAlert(&alertModels.Alert{Triggers: map[string]string{"author": "5"}})

	s.NotPanics(func() {
		s.engine.CheckRecord(context.Background(), 1, testRecord())
	})

	// The healthy alert still fires.
	s.Len(s.notify.calls, 1)
}

func (s *EngineSuite) TestSendTimeout() {
	blocking := &recordingType{slug: "blocking", block: true}
	s.Require().NoError(s.registry.RegisterAlertType(blocking))

	engine, err := New(s.alerts, s.registry, WithSendTimeout(10*time.Millisecond))
	s.Require().NoError(err)

	s.putAlert(&alertModels.Alert{
		AlertType: "blocking",
		Triggers:  map[string]string{"author": "5"},
	})

	done := make(chan struct{})
	go func() {
		engine.CheckRecord(context.Background(), 1, testRecord())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("engine did not enforce the send timeout")
	}
}

func (s *EngineSuite) TestDedupSuppressesRepeatSends() {
	engine, err := New(s.alerts, s.registry, WithDeduper(dedup.NewMemory(time.Hour)))
	s.Require().NoError(err)

	s.putAlert(&alertModels.Alert{Triggers: map[string]string{"author": "5"}})

	engine.CheckRecord(context.Background(), 1, testRecord())
	engine.CheckRecord(context.Background(), 1, testRecord())
	s.Len(s.notify.calls, 1)

	// A different record is a different pair.
	engine.CheckRecord(context.Background(), 2, testRecord())
	s.Len(s.notify.calls, 2)
}
