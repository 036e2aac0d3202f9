package notify

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/google/uuid"
	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/billingkit/billing"
)

// AddressLookup resolves a customer id to an email address. Wiring it as a
// function keeps this package independent of the storage layer.
type AddressLookup func(ctx context.Context, customerID uuid.UUID) (string, error)

// Email sends notifications through Postmark's transactional API.
type Email struct {
	client *postmark.Client
	cfg    Config
	lookup AddressLookup
}

// NewEmail creates a Postmark-backed provider. Both tokens, a sender identity
// and an address lookup are required for runtime operation; this enforces
// explicit configuration instead of silent failures in production.
func NewEmail(cfg Config, lookup AddressLookup) (*Email, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if lookup == nil {
		return nil, fmt.Errorf("%w: AddressLookup is required", ErrInvalidConfig)
	}
	return &Email{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
		lookup: lookup,
	}, nil
}

// Send implements billing.NotificationProvider.
func (e *Email) Send(ctx context.Context, n billing.Notification) error {
	to, err := e.lookup(ctx, n.CustomerID)
	if err != nil {
		return errors.Join(ErrRecipientUnknown, err)
	}

	resp, err := e.client.SendEmail(ctx, postmark.Email{
		From:       e.cfg.SenderEmail,
		ReplyTo:    e.cfg.SupportEmail,
		To:         to,
		Subject:    e.cfg.Subject,
		Tag:        "billing",
		HTMLBody:   renderBody(n),
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrDeliveryFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// renderBody builds a minimal HTML body; when an invoice is attached its
// amount and id are included as the receipt.
func renderBody(n billing.Notification) string {
	body := "<p>" + html.EscapeString(n.Message) + "</p>"
	if n.Invoice != nil {
		body += fmt.Sprintf("<p>Invoice %s: %s</p>",
			html.EscapeString(n.Invoice.ID.String()),
			html.EscapeString(n.Invoice.Amount.String()))
	}
	return body
}
