package types

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

const SlugWebhook = "webhook"

// Webhook POSTs a JSON payload describing the matched record to a URL
// configured on the alert.
type Webhook struct {
	client *http.Client
}

func NewWebhook(client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{client: client}
}

func (*Webhook) Slug() string { return SlugWebhook }

type webhookPayload struct {
	RecordID   string            `json:"record_id"`
	Summary    string            `json:"summary"`
	Connector  string            `json:"connector"`
	Context    string            `json:"context"`
	Action     string            `json:"action"`
	Author     string            `json:"author"`
	Created    string            `json:"created"`
	AlertID    string            `json:"alert_id,omitempty"`
	Meta       *models.Meta      `json:"stream_meta,omitempty"`
	AuthorMeta map[string]string `json:"author_meta,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, recordID id.RecordID, record *models.Record, alertMeta map[string]string) error {
	endpoint := alertMeta["webhook_url"]
	if endpoint == "" {
		return fmt.Errorf("webhook alert has no URL")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return fmt.Errorf("webhook alert URL invalid: %w", err)
	}

	payload := webhookPayload{
		RecordID:   recordID.String(),
		Summary:    record.Summary,
		Connector:  record.Connector,
		Context:    record.Context,
		Action:     record.Action,
		Author:     record.AuthorMeta[models.MetaUserLogin],
		Created:    record.Created.UTC().Format("2006-01-02T15:04:05.000Z"),
		AlertID:    alertMeta["alert_id"],
		Meta:       record.StreamMeta,
		AuthorMeta: record.AuthorMeta,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) IsAvailable() bool { return true }

func (*Webhook) ConfigFields() []string { return []string{"webhook_url"} }
