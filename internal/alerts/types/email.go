package types

import (
	"context"
	"fmt"
	"strings"

	"streamlog/internal/stream/models"
	id "streamlog/pkg/domain"
)

const SlugEmail = "email"

// Mailer sends a plain-text message. The platform SMTP client
// implements it; tests substitute a recorder.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Email notifies one or more recipients per matched record.
type Email struct {
	mailer Mailer
}

func NewEmail(mailer Mailer) *Email {
	return &Email{mailer: mailer}
}

func (*Email) Slug() string { return SlugEmail }

func (e *Email) Send(ctx context.Context, recordID id.RecordID, record *models.Record, alertMeta map[string]string) error {
	recipients := splitRecipients(alertMeta["email_recipient"])
	if len(recipients) == 0 {
		return fmt.Errorf("email alert has no recipients")
	}

	subject := alertMeta["email_subject"]
	if subject == "" {
		subject = fmt.Sprintf("Alert: %s", record.Summary)
	}

	body := fmt.Sprintf(
		"A record matched your alert.\n\nRecord:    %s\nSummary:   %s\nConnector: %s\nContext:   %s\nAction:    %s\nAuthor:    %s\nDate:      %s\n",
		recordID,
		record.Summary,
		record.Connector,
		record.Context,
		record.Action,
		record.AuthorMeta[models.MetaUserLogin],
		record.Created.Format("2006-01-02 15:04:05 MST"),
	)

	if err := e.mailer.Send(ctx, recipients, subject, body); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func (e *Email) IsAvailable() bool { return e.mailer != nil }

func (*Email) ConfigFields() []string {
	return []string{"email_recipient", "email_subject"}
}

func splitRecipients(raw string) []string {
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
