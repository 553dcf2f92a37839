// Package types provides the built-in alert type implementations.
package types

import (
	"context"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

const SlugNone = "none"

// None matches and records nothing beyond the match itself. It exists
// so an alert can be defined and observed (via metrics and logs) before
// a delivery channel is chosen.
type None struct{}

func NewNone() None { return None{} }

func (None) Slug() string { return SlugNone }

func (None) Send(context.Context, id.RecordID, *models.Record, map[string]string) error {
	return nil
}

func (None) IsAvailable() bool { return true }

func (None) ConfigFields() []string { return nil }
