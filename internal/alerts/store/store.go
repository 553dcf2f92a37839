// Package store defines persistence for alert definitions.
package store

import (
	"context"

	"streamlog/internal/alerts/models"
	id "streamlog/pkg/domain"
)

// Store persists alert definitions. The matching engine only ever calls
// ListEnabled; the rest serves the admin API.
type Store interface {
	ListEnabled(ctx context.Context) ([]*models.Alert, error)
	List(ctx context.Context) ([]*models.Alert, error)
	Get(ctx context.Context, alertID id.AlertID) (*models.Alert, error)
	Put(ctx context.Context, alert *models.Alert) error
	Delete(ctx context.Context, alertID id.AlertID) error
}
