// Package models defines the stream record data model shared by the
// logger, stores and the alert engine.
package models

import (
	"strconv"
	"strings"
	"time"

	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

// Visibility controls whether a record appears in default views.
// Private records are excluded from listings but still stored.
type Visibility string

const (
	VisibilityPublished Visibility = "published"
	VisibilityPrivate   Visibility = "private"
)

// TypeStream is the record type discriminator. All activity records
// carry it; the field is reserved for future record kinds.
const TypeStream = "stream"

// Author metadata keys.
const (
	MetaUserEmail      = "user_email"
	MetaDisplayName    = "display_name"
	MetaUserLogin      = "user_login"
	MetaUserRoleLabel  = "user_role_label"
	MetaAgent          = "agent"
	MetaSystemUserID   = "system_user_id"
	MetaSystemUserName = "system_user_name"
)

// Stream metadata keys injected by the transaction timer.
const (
	MetaTransactionStart = "transaction_start"
	MetaTransactionStop  = "transaction_stop"
	MetaTransactionTime  = "transaction_time"
)

// MetaAlertsTriggered accumulates ids of alerts that fired for a record.
const MetaAlertsTriggered = "alerts_triggered"

// Record is one activity-log entry. Immutable once persisted, except
// for bookkeeping meta appended by alert types (alerts_triggered).
type Record struct {
	ID         id.RecordID
	ObjectID   int64
	SiteID     int64
	BlogID     int64
	AuthorID   id.UserID
	AuthorRole string
	AuthorMeta map[string]string
	Created    time.Time
	Visibility Visibility
	Type       string
	Summary    string
	Connector  string
	Context    string
	Action     string
	StreamMeta *Meta
	IP         string
}

// Clone returns a deep copy so stores and notifiers can retain records
// without aliasing the caller's maps.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.AuthorMeta != nil {
		cp.AuthorMeta = make(map[string]string, len(r.AuthorMeta))
		for k, v := range r.AuthorMeta {
			cp.AuthorMeta[k] = v
		}
	}
	cp.StreamMeta = r.StreamMeta.Clone()
	return &cp
}

// ExclusionRule marks matching candidate records private instead of
// published. Empty fields are unset; the non-empty subset is matched as
// a conjunction. Author and Role are mutually exclusive: a rule filters
// by user id or by role name, never both.
type ExclusionRule struct {
	ID        id.RuleID
	Connector string
	Context   string
	Action    string
	IPAddress string
	Author    *id.UserID
	Role      string
}

// IsEmpty reports whether no field of the rule is set. An empty rule
// matches nothing, so blanket exclusion cannot happen by accident.
func (r ExclusionRule) IsEmpty() bool {
	return r.Connector == "" && r.Context == "" && r.Action == "" &&
		r.IPAddress == "" && r.Author == nil && r.Role == ""
}

// Validate enforces the Author/Role mutual exclusion.
func (r ExclusionRule) Validate() error {
	if r.Author != nil && r.Role != "" {
		return dErrors.New(dErrors.CodeInvalidInput, "exclusion rule cannot filter by both author and role")
	}
	return nil
}

// ParseAuthorOrRole splits a legacy combined author-or-role value:
// numeric means a user id, anything else a role name. Empty input
// leaves both unset.
func ParseAuthorOrRole(s string) (*id.UserID, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n >= 0 {
		uid := id.UserID(n)
		return &uid, ""
	}
	return nil, s
}
