// Package payments talks to the payment providers that unlock Premium:
// Stripe subscriptions and Mercado Pago one-off checkout preferences.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrNotConfigured     = errors.New("payment provider not configured")
	ErrWebhookSignature  = errors.New("webhook signature verification failed")
	ErrWebhookProcessing = errors.New("failed to process webhook payload")
)

// Stripe webhook event types we act on.
const (
	StripeCheckoutCompleted   = "checkout.session.completed"
	StripeSubscriptionDeleted = "customer.subscription.deleted"
	stripeUserMetadataKey     = "uid"
)

// StripeConfig holds Stripe settings.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
	PortalReturn  string
}

// StripeClient creates checkout and portal sessions and verifies webhooks.
type StripeClient struct {
	cfg StripeConfig
}

// NewStripeClient sets the global Stripe key and returns a client.
func NewStripeClient(cfg StripeConfig) (*StripeClient, error) {
	if cfg.SecretKey == "" || cfg.PriceID == "" {
		return nil, ErrNotConfigured
	}
	stripe.Key = cfg.SecretKey
	return &StripeClient{cfg: cfg}, nil
}

// CheckoutSession is what the client needs to redirect the user.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession starts a subscription checkout for uid. The uid travels as
// client_reference_id and as subscription metadata so later subscription events can
// be traced back to the user.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, uid, email, customerID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(c.cfg.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(uid),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{stripeUserMetadataKey: uid},
		},
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreatePortalSession returns a billing portal URL for an existing customer.
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.cfg.PortalReturn),
	}
	params.Context = ctx

	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe portal session: %w", err)
	}
	return s.URL, nil
}

// StripeWebhookEvent is the provider-neutral view of a verified Stripe event.
type StripeWebhookEvent struct {
	ID             string
	Type           string
	UserID         string
	CustomerID     string
	SubscriptionID string
}

// ParseWebhook verifies the Stripe-Signature header and extracts the fields of the
// events we handle. Other event types come back with only ID and Type set.
func (c *StripeClient) ParseWebhook(payload []byte, signature string) (*StripeWebhookEvent, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	out := &StripeWebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case StripeCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWebhookProcessing, err)
		}
		out.UserID = s.ClientReferenceID
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
		}
	case StripeSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWebhookProcessing, err)
		}
		out.SubscriptionID = sub.ID
		out.UserID = sub.Metadata[stripeUserMetadataKey]
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}
	return out, nil
}
