package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendConfig configures a ResendSender.
type ResendConfig struct {
	APIKey  string
	From    string
	ReplyTo string
	// BaseURL overrides the API endpoint (tests, regional endpoints).
	BaseURL string
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
	now     func() time.Time
}

// NewResendSender creates a sender.
// PRE: cfg.APIKey and cfg.From are non-empty
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	if cfg.APIKey == "" || cfg.From == "" {
		return nil, errors.New("email: resend api key and from address are required")
	}
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("email: invalid resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client, from: cfg.From, replyTo: cfg.ReplyTo, now: time.Now}, nil
}

// Send queues one email for delivery.
// PRE: req has at least one recipient and a subject
// POST: returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 || req.Subject == "" {
		return SendResult{}, errors.New("email: recipient and subject are required")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: s.replyTo,
	}
	if req.From != "" {
		params.From = req.From
	}
	if req.ReplyTo != "" {
		params.ReplyTo = req.ReplyTo
	}
	if req.Category != "" {
		params.Tags = []resend.Tag{{Name: "category", Value: req.Category}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: s.now()}, nil
}
