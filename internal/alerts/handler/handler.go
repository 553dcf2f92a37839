// Package handler exposes the alert definition CRUD endpoints.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"streamlog/internal/alerts/models"
	"streamlog/internal/alerts/registry"
	"streamlog/internal/alerts/store"
	"streamlog/internal/platform/middleware"
	"streamlog/internal/transport/http/shared"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
	"streamlog/pkg/requestcontext"
)

// Handler handles alert endpoints.
type Handler struct {
	logger       *slog.Logger
	alerts       store.Store
	registry     *registry.Registry
	jwtValidator middleware.JWTValidator
}

func New(alerts store.Store, reg *registry.Registry, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		alerts:       alerts,
		registry:     reg,
		jwtValidator: jwtValidator,
	}
}

// Register registers the alert routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	alertRouter := chi.NewRouter()
	alertRouter.Use(middleware.Recovery(h.logger))
	alertRouter.Use(middleware.RequestID)
	alertRouter.Use(middleware.Logger(h.logger))
	alertRouter.Use(middleware.Timeout(30 * time.Second))
	alertRouter.Use(middleware.ContentTypeJSON)
	alertRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	alertRouter.Get("/", h.handleListAlerts)
	alertRouter.Post("/", h.handleCreateAlert)
	alertRouter.Get("/catalog", h.handleCatalog)
	alertRouter.Get("/{alertID}", h.handleGetAlert)
	alertRouter.Put("/{alertID}", h.handleUpdateAlert)
	alertRouter.Delete("/{alertID}", h.handleDeleteAlert)

	r.Mount("/v1/alerts", alertRouter)
}

type alertRequest struct {
	Status    string            `json:"status"`
	Triggers  map[string]string `json:"triggers"`
	AlertType string            `json:"alert_type"`
	AlertMeta map[string]string `json:"alert_meta"`
}

type alertResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Author    int64             `json:"author"`
	Created   string            `json:"created"`
	Triggers  map[string]string `json:"triggers"`
	AlertType string            `json:"alert_type"`
	AlertMeta map[string]string `json:"alert_meta,omitempty"`
}

func toAlertResponse(alert *models.Alert) alertResponse {
	return alertResponse{
		ID:        alert.ID.String(),
		Status:    string(alert.Status),
		Author:    int64(alert.Author),
		Created:   alert.Created.UTC().Format(time.RFC3339),
		Triggers:  alert.Triggers,
		AlertType: alert.AlertType,
		AlertMeta: alert.AlertMeta,
	}
}

// validate checks the request against the registry so an alert can
// never reference a trigger or alert type this deployment lacks.
func (h *Handler) validate(req alertRequest) error {
	if _, ok := h.registry.AlertType(req.AlertType); !ok {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown alert type %q", req.AlertType))
	}
	for slug := range req.Triggers {
		if _, ok := h.registry.Trigger(slug); !ok {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown trigger %q", slug))
		}
	}
	switch models.Status(req.Status) {
	case models.StatusEnabled, models.StatusDisabled:
		return nil
	default:
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown status %q", req.Status))
	}
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alerts, err := h.alerts.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list alerts",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list alerts"))
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, toAlertResponse(alert))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (h *Handler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	h.putAlert(w, r, id.NewAlertID(), http.StatusCreated)
}

func (h *Handler) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid alert id"))
		return
	}
	h.putAlert(w, r, alertID, http.StatusOK)
}

func (h *Handler) putAlert(w http.ResponseWriter, r *http.Request, alertID id.AlertID, status int) {
	ctx := r.Context()

	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.validate(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	alert := &models.Alert{
		ID:        alertID,
		Status:    models.Status(req.Status),
		Author:    requestcontext.UserID(ctx),
		Created:   time.Now().UTC(),
		Triggers:  req.Triggers,
		AlertType: req.AlertType,
		AlertMeta: req.AlertMeta,
	}

	if existing, err := h.alerts.Get(ctx, alertID); err == nil {
		alert.Author = existing.Author
		alert.Created = existing.Created
	}

	if err := h.alerts.Put(ctx, alert); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to store alert",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to store alert"))
		return
	}

	shared.WriteJSON(w, status, toAlertResponse(alert))
}

func (h *Handler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid alert id"))
		return
	}

	alert, err := h.alerts.Get(ctx, alertID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get alert",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to get alert"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toAlertResponse(alert))
}

func (h *Handler) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid alert id"))
		return
	}

	if err := h.alerts.Delete(ctx, alertID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete alert",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to delete alert"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCatalog lists the trigger and alert type slugs available in
// this deployment, with the config fields each alert type understands.
func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	types := make(map[string][]string)
	for _, slug := range h.registry.AlertTypeSlugs() {
		if t, ok := h.registry.AlertType(slug); ok {
			fields := t.ConfigFields()
			if fields == nil {
				fields = []string{}
			}
			types[slug] = fields
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"triggers":    h.registry.TriggerSlugs(),
		"alert_types": types,
	})
}
