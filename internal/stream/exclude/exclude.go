// Package exclude decides whether a candidate record is excluded from
// the default log view. Rules are configured by administrators; a
// matching record is still stored but marked private.
package exclude

import (
	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

// Fields is the subset of a candidate record that exclusion rules can
// match against. The logger builds it before the record is persisted;
// callers doing pre-flight checks build it directly.
type Fields struct {
	Connector  string
	Context    string
	Action     string
	IP         string
	AuthorID   id.UserID
	AuthorRole string
}

// IsExcluded reports whether any rule matches the candidate fields.
// Rules are OR-combined; the set fields within one rule are
// AND-combined. A rule with no fields set matches nothing. Malformed
// rules degrade to their valid subset rather than erroring.
func IsExcluded(fields Fields, rules []models.ExclusionRule) bool {
	for _, rule := range rules {
		if matches(fields, rule) {
			return true
		}
	}
	return false
}

func matches(fields Fields, rule models.ExclusionRule) bool {
	if rule.IsEmpty() {
		return false
	}
	if rule.Connector != "" && rule.Connector != fields.Connector {
		return false
	}
	if rule.Context != "" && rule.Context != fields.Context {
		return false
	}
	if rule.Action != "" && rule.Action != fields.Action {
		return false
	}
	if rule.IPAddress != "" && rule.IPAddress != fields.IP {
		return false
	}
	if rule.Author != nil && *rule.Author != fields.AuthorID {
		return false
	}
	if rule.Role != "" && rule.Role != fields.AuthorRole {
		return false
	}
	return true
}
