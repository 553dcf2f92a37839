// Package handler exposes the event ingest, record query and exclusion
// rule endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"streamlog/internal/platform/middleware"
	"streamlog/internal/stream/connectors"
	"streamlog/internal/stream/exclude"
	"streamlog/internal/stream/models"
	"streamlog/internal/stream/service"
	"streamlog/internal/stream/store"
	"streamlog/internal/transport/http/shared"
	id "streamlog/pkg/domain"
	dErrors "streamlog/pkg/domain-errors"
	"streamlog/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/stream-mocks.go -package=mocks Logger

// Logger is the slice of the stream service the handler needs.
type Logger interface {
	Log(ctx context.Context, entry service.Entry) (id.RecordID, error)
	IsRecordExcluded(ctx context.Context, fields exclude.Fields) (bool, error)
}

// Handler handles stream endpoints.
type Handler struct {
	logger       *slog.Logger
	stream       Logger
	records      store.RecordStore
	rules        store.RuleStore
	connectors   *connectors.Registry
	jwtValidator middleware.JWTValidator
	ingestHash   string
}

func New(
	stream Logger,
	records store.RecordStore,
	rules store.RuleStore,
	reg *connectors.Registry,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
	ingestHash string,
) *Handler {
	return &Handler{
		logger:       logger,
		stream:       stream,
		records:      records,
		rules:        rules,
		connectors:   reg,
		jwtValidator: jwtValidator,
		ingestHash:   ingestHash,
	}
}

// Register registers the stream routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	ingest := chi.NewRouter()
	ingest.Use(middleware.Recovery(h.logger))
	ingest.Use(middleware.RequestID)
	ingest.Use(middleware.Logger(h.logger))
	ingest.Use(middleware.Timeout(30 * time.Second))
	ingest.Use(middleware.ContentTypeJSON)
	ingest.Use(middleware.ClientMetadata)
	ingest.Use(middleware.Transaction)
	ingest.Use(middleware.RequireAPIKey(h.ingestHash, h.logger))
	ingest.Post("/", h.handleLogEvent)
	ingest.Post("/check", h.handleCheckEvent)

	admin := chi.NewRouter()
	admin.Use(middleware.Recovery(h.logger))
	admin.Use(middleware.RequestID)
	admin.Use(middleware.Logger(h.logger))
	admin.Use(middleware.Timeout(30 * time.Second))
	admin.Use(middleware.ContentTypeJSON)
	admin.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	admin.Get("/records", h.handleListRecords)
	admin.Get("/records/{recordID}", h.handleGetRecord)
	admin.Get("/exclusions", h.handleListRules)
	admin.Post("/exclusions", h.handleCreateRule)
	admin.Put("/exclusions/{ruleID}", h.handleUpdateRule)
	admin.Delete("/exclusions/{ruleID}", h.handleDeleteRule)
	admin.Get("/connectors", h.handleListConnectors)
	admin.Put("/connectors/{slug}/logging", h.handleSetConnectorLogging)

	r.Mount("/v1/events", ingest)
	r.Mount("/v1", admin)
}

type eventUser struct {
	ID          int64    `json:"id"`
	Login       string   `json:"login"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	RoleLabel   string   `json:"role_label"`
}

type logEventRequest struct {
	Connector string         `json:"connector"`
	Context   string         `json:"context"`
	Action    string         `json:"action"`
	Message   string         `json:"message"`
	Args      []any          `json:"args"`
	Meta      map[string]any `json:"meta"`
	ObjectID  int64          `json:"object_id"`
	User      *eventUser     `json:"user"`
	UserID    *int64         `json:"user_id"`
}

func (h *Handler) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req logEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if req.User != nil {
		ctx = requestcontext.WithUser(ctx, requestcontext.UserInfo{
			ID:          id.UserID(req.User.ID),
			Login:       req.User.Login,
			Email:       req.User.Email,
			DisplayName: req.User.DisplayName,
			Roles:       req.User.Roles,
			RoleLabel:   req.User.RoleLabel,
		})
	}

	entry := service.Entry{
		Connector: req.Connector,
		Context:   req.Context,
		Action:    req.Action,
		Message:   req.Message,
		Args:      req.Args,
		Meta:      req.Meta,
		ObjectID:  req.ObjectID,
	}
	if req.UserID != nil {
		uid := id.UserID(*req.UserID)
		entry.UserID = &uid
	}

	recordID, err := h.stream.Log(ctx, entry)
	if err != nil {
		if errors.Is(err, service.ErrSkipped) {
			shared.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "skipped"})
			return
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to log event",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to log event"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{"record_id": recordID})
}

type checkEventRequest struct {
	Connector  string `json:"connector"`
	Context    string `json:"context"`
	Action     string `json:"action"`
	IP         string `json:"ip"`
	AuthorID   int64  `json:"author_id"`
	AuthorRole string `json:"author_role"`
}

// handleCheckEvent is the pre-flight check: would this event be marked
// private? Lets callers skip building expensive metadata for records
// nobody will see.
func (h *Handler) handleCheckEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	excluded, err := h.stream.IsRecordExcluded(ctx, exclude.Fields{
		Connector:  req.Connector,
		Context:    req.Context,
		Action:     req.Action,
		IP:         req.IP,
		AuthorID:   id.UserID(req.AuthorID),
		AuthorRole: req.AuthorRole,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check exclusion",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to check exclusion"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]bool{"excluded": excluded})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := store.RecordQuery{
		Connector:  q.Get("connector"),
		Context:    q.Get("context"),
		Action:     q.Get("action"),
		Visibility: models.Visibility(q.Get("visibility")),
	}
	if author := q.Get("author"); author != "" {
		n, err := strconv.ParseInt(author, 10, 64)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "author must be numeric"))
			return
		}
		uid := id.UserID(n)
		query.Author = &uid
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "since must be RFC 3339"))
			return
		}
		query.Since = t
	}
	if until := q.Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "until must be RFC 3339"))
			return
		}
		query.Until = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		query.Limit = n
	}

	records, err := h.records.Query(ctx, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to query records",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to query records"))
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordResponse(record))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return
	}

	record, err := h.records.Get(ctx, recordID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get record",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to get record"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

type ruleRequest struct {
	Connector string `json:"connector"`
	Context   string `json:"context"`
	Action    string `json:"action"`
	IPAddress string `json:"ip_address"`
	Author    *int64 `json:"author"`
	Role      string `json:"role"`
	// AuthorOrRole is the legacy combined field: numeric means a user
	// id, anything else a role name. Ignored when Author or Role is set.
	AuthorOrRole string `json:"author_or_role"`
}

func (r ruleRequest) toModel(ruleID id.RuleID) models.ExclusionRule {
	rule := models.ExclusionRule{
		ID:        ruleID,
		Connector: r.Connector,
		Context:   r.Context,
		Action:    r.Action,
		IPAddress: r.IPAddress,
		Role:      r.Role,
	}
	if r.Author != nil {
		uid := id.UserID(*r.Author)
		rule.Author = &uid
	}
	if rule.Author == nil && rule.Role == "" && r.AuthorOrRole != "" {
		rule.Author, rule.Role = models.ParseAuthorOrRole(r.AuthorOrRole)
	}
	return rule
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rules, err := h.rules.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list exclusion rules",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list exclusion rules"))
		return
	}

	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"rules": out})
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	h.putRule(w, r, id.RuleID(uuid.New()), http.StatusCreated)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid rule id"))
		return
	}
	h.putRule(w, r, ruleID, http.StatusOK)
}

func (h *Handler) putRule(w http.ResponseWriter, r *http.Request, ruleID id.RuleID, status int) {
	ctx := r.Context()

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rule := req.toModel(ruleID)
	if err := h.rules.Put(ctx, rule); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to store exclusion rule",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to store exclusion rule"))
		return
	}

	shared.WriteJSON(w, status, toRuleResponse(rule))
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid rule id"))
		return
	}

	if err := h.rules.Delete(ctx, ruleID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete exclusion rule",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to delete exclusion rule"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type connectorResponse struct {
	Slug     string   `json:"slug"`
	Label    string   `json:"label"`
	Contexts []string `json:"contexts"`
	Actions  []string `json:"actions"`
}

func (h *Handler) handleListConnectors(w http.ResponseWriter, r *http.Request) {
	out := make([]connectorResponse, 0)
	for _, slug := range h.connectors.Slugs() {
		c, ok := h.connectors.Get(slug)
		if !ok {
			continue
		}
		out = append(out, connectorResponse{
			Slug:     c.Slug(),
			Label:    c.Label(),
			Contexts: c.Contexts(),
			Actions:  c.Actions(),
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"connectors": out})
}

type connectorLoggingRequest struct {
	Context string `json:"context"`
	Action  string `json:"action"`
	Enabled *bool  `json:"enabled"`
}

func (h *Handler) handleSetConnectorLogging(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, ok := h.connectors.Get(slug); !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown connector"))
		return
	}

	var req connectorLoggingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	h.connectors.SetLoggingEnabled(slug, req.Context, req.Action, *req.Enabled)
	w.WriteHeader(http.StatusNoContent)
}
