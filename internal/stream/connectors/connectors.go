// Package connectors maintains the catalog of event sources. Each
// connector declares the contexts and actions it emits; administrators
// can switch logging off per connector, context or action without
// touching exclusion rules.
package connectors

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	dErrors "streamlog/pkg/domain-errors"
)

// Connector describes one event source.
type Connector interface {
	// Slug identifies the connector in records and rules.
	Slug() string
	// Label is the human-readable connector name.
	Label() string
	// Contexts lists the object groupings this connector emits.
	Contexts() []string
	// Actions lists the verbs this connector emits.
	Actions() []string
	// IsAvailable lets a connector opt out when its event source is not
	// present in this deployment. Unavailable connectors are rejected at
	// registration.
	IsAvailable() bool
}

// Registry is populated at startup. Logging toggles may change at
// runtime through the admin API.
type Registry struct {
	mu         sync.RWMutex
	logger     *slog.Logger
	connectors map[string]Connector
	disabled   map[string]bool
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:     logger,
		connectors: make(map[string]Connector),
		disabled:   make(map[string]bool),
	}
}

// Register validates and adds a connector. Missing slugs and
// unsatisfied dependencies are rejected with a warning; a bad connector
// is a configuration problem, never fatal.
func (r *Registry) Register(c Connector) error {
	if c == nil || c.Slug() == "" {
		r.logger.Warn("rejecting connector with no slug")
		return dErrors.New(dErrors.CodeInvalidInput, "connector must have a slug")
	}
	if !c.IsAvailable() {
		r.logger.Warn("rejecting unavailable connector", "slug", c.Slug())
		return dErrors.New(dErrors.CodeUnavailable, "connector dependency not satisfied")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Slug()] = c
	return nil
}

// Get resolves a connector by slug.
func (r *Registry) Get(slug string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[slug]
	return c, ok
}

// Slugs lists registered connector slugs, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connectors))
	for slug := range r.connectors {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// toggleKey builds the lookup key for a disable entry. Empty context
// and action address the whole connector.
func toggleKey(connector, context, action string) string {
	return strings.Join([]string{connector, context, action}, "\x00")
}

// SetLoggingEnabled switches logging for a connector, a context within
// it, or a single action. Enabling removes the disable entry; logging
// defaults to on.
func (r *Registry) SetLoggingEnabled(connector, context, action string, enabled bool) {
	key := toggleKey(connector, context, action)
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled {
		delete(r.disabled, key)
	} else {
		r.disabled[key] = true
	}
}

// IsLoggingEnabled reports whether events for the given coordinates
// should be logged. Disabling a connector wins over its contexts and
// actions; unknown connectors default to enabled so dynamic sources are
// not silently dropped.
func (r *Registry) IsLoggingEnabled(connector, context, action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.disabled[toggleKey(connector, "", "")] {
		return false
	}
	if context != "" && r.disabled[toggleKey(connector, context, "")] {
		return false
	}
	if action != "" && r.disabled[toggleKey(connector, context, action)] {
		return false
	}
	return true
}
