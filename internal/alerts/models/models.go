// Package models defines alert definitions: persisted rules that fire a
// notifier when all of their triggers match a newly inserted record.
package models

import (
	"time"

	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

// Status gates whether an alert is evaluated.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Alert is an administrator-defined notification rule. The matching
// engine reads alerts and never mutates them.
type Alert struct {
	ID      id.AlertID
	Status  Status
	Author  id.UserID
	Created time.Time
	// Triggers maps trigger slug to its configured predicate value.
	// All entries must match for the alert to fire; an empty map never
	// matches.
	Triggers  map[string]string
	AlertType string
	AlertMeta map[string]string
}

// Enabled reports whether the engine should evaluate this alert.
func (a *Alert) Enabled() bool { return a.Status == StatusEnabled }

// Validate checks the invariants enforced at the admin boundary.
func (a *Alert) Validate() error {
	if a.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "alert id is required")
	}
	switch a.Status {
	case StatusEnabled, StatusDisabled:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "alert status must be enabled or disabled")
	}
	if a.AlertType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "alert type is required")
	}
	return nil
}

// Clone returns a deep copy so the engine can hand alerts to notifiers
// without sharing maps.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Triggers != nil {
		cp.Triggers = make(map[string]string, len(a.Triggers))
		for k, v := range a.Triggers {
			cp.Triggers[k] = v
		}
	}
	if a.AlertMeta != nil {
		cp.AlertMeta = make(map[string]string, len(a.AlertMeta))
		for k, v := range a.AlertMeta {
			cp.AlertMeta[k] = v
		}
	}
	return &cp
}
