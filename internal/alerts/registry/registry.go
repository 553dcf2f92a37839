// Package registry maps trigger and alert-type slugs to their
// implementations. It replaces the original's dynamic class-name
// dispatch with explicit startup-time registration, so every
// implementation the engine can reach is visible in the wiring code.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
)

// Trigger tests one aspect of a record against a configured predicate
// value.
type Trigger interface {
	Slug() string
	// Matches reports whether the record satisfies the configured
	// predicate value. Malformed values never error; they simply fail
	// to match.
	Matches(record *models.Record, value string) bool
	// IsAvailable lets a trigger opt out when a dependency it needs is
	// missing in this deployment. Unavailable triggers are rejected at
	// registration, not skipped at match time.
	IsAvailable() bool
}

// AlertType delivers a notification for a matched record.
type AlertType interface {
	Slug() string
	Send(ctx context.Context, recordID id.RecordID, record *models.Record, alertMeta map[string]string) error
	IsAvailable() bool
	// ConfigFields names the alert_meta keys this type understands.
	// Purely descriptive; configuration UIs live outside this service.
	ConfigFields() []string
}

// Registry is populated once at startup and read-only afterwards from
// the engine's perspective. External contributions go through the same
// Register calls as built-ins and face the same validation.
type Registry struct {
	mu         sync.RWMutex
	logger     *slog.Logger
	triggers   map[string]Trigger
	alertTypes map[string]AlertType
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:     logger,
		triggers:   make(map[string]Trigger),
		alertTypes: make(map[string]AlertType),
	}
}

// RegisterTrigger validates and adds a trigger implementation. Invalid
// or unavailable contributions are rejected with a warning and an
// error; registration problems are configuration issues, never fatal.
func (r *Registry) RegisterTrigger(t Trigger) error {
	if t == nil || t.Slug() == "" {
		r.logger.Warn("rejecting alert trigger with no slug")
		return dErrors.New(dErrors.CodeInvalidInput, "trigger must have a slug")
	}
	if !t.IsAvailable() {
		r.logger.Warn("rejecting unavailable alert trigger", "slug", t.Slug())
		return dErrors.New(dErrors.CodeUnavailable, "trigger dependency not satisfied")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers[t.Slug()] = t
	return nil
}

// RegisterAlertType validates and adds an alert type implementation.
func (r *Registry) RegisterAlertType(t AlertType) error {
	if t == nil || t.Slug() == "" {
		r.logger.Warn("rejecting alert type with no slug")
		return dErrors.New(dErrors.CodeInvalidInput, "alert type must have a slug")
	}
	if !t.IsAvailable() {
		r.logger.Warn("rejecting unavailable alert type", "slug", t.Slug())
		return dErrors.New(dErrors.CodeUnavailable, "alert type dependency not satisfied")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alertTypes[t.Slug()] = t
	return nil
}

// Trigger resolves a trigger by slug.
func (r *Registry) Trigger(slug string) (Trigger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.triggers[slug]
	return t, ok
}

// AlertType resolves an alert type by slug.
func (r *Registry) AlertType(slug string) (AlertType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.alertTypes[slug]
	return t, ok
}

// TriggerSlugs lists registered trigger slugs.
func (r *Registry) TriggerSlugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.triggers))
	for slug := range r.triggers {
		out = append(out, slug)
	}
	return out
}

// AlertTypeSlugs lists registered alert type slugs.
func (r *Registry) AlertTypeSlugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.alertTypes))
	for slug := range r.alertTypes {
		out = append(out, slug)
	}
	return out
}
