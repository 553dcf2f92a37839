// Package triggers provides the built-in alert trigger predicates:
// author, action, and context (connector plus sub-context).
package triggers

import (
	"strings"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

// Slugs of the built-in triggers.
const (
	SlugAuthor  = "author"
	SlugAction  = "action"
	SlugContext = "context"
)

// Author matches records produced by a specific user id. A predicate
// value that is not a valid user id matches nothing. Absent authors are
// user id 0, so an alert on author 0 catches system activity.
type Author struct{}

func (Author) Slug() string { return SlugAuthor }

func (Author) IsAvailable() bool { return true }

func (Author) Matches(record *models.Record, value string) bool {
	want, err := id.ParseUserID(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return record.AuthorID == want
}

// Action matches the record's action slug.
type Action struct{}

func (Action) Slug() string { return SlugAction }

func (Action) IsAvailable() bool { return true }

func (Action) Matches(record *models.Record, value string) bool {
	return value != "" && record.Action == value
}

// Context matches the record's connector, optionally narrowed to a
// sub-context with a "connector/context" value.
type Context struct{}

func (Context) Slug() string { return SlugContext }

func (Context) IsAvailable() bool { return true }

func (Context) Matches(record *models.Record, value string) bool {
	if value == "" {
		return false
	}
	connector, context, narrowed := strings.Cut(value, "/")
	if record.Connector != connector {
		return false
	}
	return !narrowed || record.Context == context
}
