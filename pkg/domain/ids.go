package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "streamlog/pkg/domain-errors"
)

// RecordID identifies a persisted stream record. It is assigned by the
// record store and is monotonic per store so records can be ordered.
type RecordID int64

func (r RecordID) IsNil() bool { return r == 0 }

func (r RecordID) String() string { return strconv.FormatInt(int64(r), 10) }

// ParseRecordID validates a record id received at a trust boundary.
func ParseRecordID(s string) (RecordID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid record id")
	}
	return RecordID(n), nil
}

// UserID identifies the acting user of an event. Zero means
// unauthenticated or a system process.
type UserID int64

func (u UserID) IsNil() bool { return u == 0 }

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }

// ParseUserID accepts non-negative numeric user ids.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	return UserID(n), nil
}

// AlertID identifies an alert definition.
type AlertID uuid.UUID

func NewAlertID() AlertID { return AlertID(uuid.New()) }

func (a AlertID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

func (a AlertID) String() string { return uuid.UUID(a).String() }

func ParseAlertID(s string) (AlertID, error) {
	if s == "" {
		return AlertID{}, dErrors.New(dErrors.CodeInvalidInput, "alert id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return AlertID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid alert id")
	}
	return AlertID(u), nil
}

// RuleID identifies an exclusion rule.
type RuleID uuid.UUID

func NewRuleID() RuleID { return RuleID(uuid.New()) }

func (r RuleID) IsNil() bool { return uuid.UUID(r) == uuid.Nil }

func (r RuleID) String() string { return uuid.UUID(r).String() }

func ParseRuleID(s string) (RuleID, error) {
	if s == "" {
		return RuleID{}, dErrors.New(dErrors.CodeInvalidInput, "rule id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return RuleID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid rule id")
	}
	return RuleID(u), nil
}
