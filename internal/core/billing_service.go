package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fitcoach-backend/internal/db"
	"fitcoach-backend/internal/events"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/payments"
)

var (
	ErrBillingNotConfigured = errors.New("billing provider not configured")
	ErrNoSubscription       = errors.New("user has no Stripe subscription")
	ErrInvalidWebhook       = errors.New("invalid webhook")
)

// Premium providers stored on the user.
const (
	ProviderStripe      = "stripe"
	ProviderMercadoPago = "mercadopago"
)

// StripeProvider is the part of payments.StripeClient the billing service uses.
type StripeProvider interface {
	CreateCheckoutSession(ctx context.Context, uid, email, customerID string) (*payments.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
	ParseWebhook(payload []byte, signature string) (*payments.StripeWebhookEvent, error)
}

// MercadoPagoProvider is the part of payments.MercadoPagoClient the billing service uses.
type MercadoPagoProvider interface {
	CreatePreference(ctx context.Context, uid, email string) (*payments.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*payments.Payment, error)
}

type billingService struct {
	users       db.UserRepository
	stripe      StripeProvider
	mercadoPago MercadoPagoProvider
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewBillingService creates a new BillingService instance. Either provider may be nil;
// its operations then return ErrBillingNotConfigured.
func NewBillingService(users db.UserRepository, stripe StripeProvider, mercadoPago MercadoPagoProvider,
	publisher events.Publisher, logger *zap.Logger) BillingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &billingService{
		users:       users,
		stripe:      stripe,
		mercadoPago: mercadoPago,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *billingService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}

func (s *billingService) CreateCheckoutSession(ctx context.Context, userID string) (string, error) {
	if s.stripe == nil {
		return "", ErrBillingNotConfigured
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	session, err := s.stripe.CreateCheckoutSession(ctx, user.ID, user.Email, user.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	s.logger.Info("Stripe checkout session created", zap.String("userID", userID), zap.String("sessionID", session.ID))
	return session.URL, nil
}

func (s *billingService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	if s.stripe == nil {
		return "", ErrBillingNotConfigured
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return "", ErrNoSubscription
	}
	url, err := s.stripe.CreatePortalSession(ctx, user.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return url, nil
}

// HandleStripeWebhook verifies and applies a Stripe event. Event types other than
// checkout completion and subscription deletion are acknowledged and ignored.
func (s *billingService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.stripe == nil {
		return ErrBillingNotConfigured
	}
	event, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrWebhookSignature) || errors.Is(err, payments.ErrWebhookProcessing) {
			return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
		}
		return err
	}
	s.logger.Info("Stripe webhook received", zap.String("eventID", event.ID), zap.String("type", event.Type))

	switch event.Type {
	case payments.StripeCheckoutCompleted:
		if event.UserID == "" {
			return fmt.Errorf("%w: checkout session without client reference", ErrInvalidWebhook)
		}
		return s.activate(ctx, event.UserID, db.PremiumUpdate{
			IsPremium:            true,
			Provider:             ProviderStripe,
			StripeCustomerID:     event.CustomerID,
			StripeSubscriptionID: event.SubscriptionID,
		})
	case payments.StripeSubscriptionDeleted:
		return s.revokeStripe(ctx, event)
	}
	return nil
}

// revokeStripe turns premium off only when the deleted subscription is the one
// currently granting it. Stale subscriptions and Mercado Pago premium are left alone.
func (s *billingService) revokeStripe(ctx context.Context, event *payments.StripeWebhookEvent) error {
	var (
		user *models.User
		err  error
	)
	switch {
	case event.UserID != "":
		user, err = s.users.GetByID(ctx, event.UserID)
	case event.CustomerID != "":
		user, err = s.users.FindByStripeCustomerID(ctx, event.CustomerID)
	default:
		s.logger.Warn("Subscription deleted without user reference", zap.String("eventID", event.ID))
		return nil
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Subscription deleted for unknown user",
				zap.String("userID", event.UserID), zap.String("customerID", event.CustomerID))
			return nil
		}
		return fmt.Errorf("failed to resolve user for Stripe event '%s': %w", event.ID, err)
	}

	log := s.logger.With(zap.String("userID", user.ID), zap.String("subscriptionID", event.SubscriptionID))
	if !user.IsPremium || user.PremiumProvider != ProviderStripe {
		log.Info("Ignoring subscription deletion; premium not held through Stripe")
		return nil
	}
	if user.StripeSubscriptionID != "" && event.SubscriptionID != user.StripeSubscriptionID {
		log.Info("Ignoring deletion of a stale subscription", zap.String("current", user.StripeSubscriptionID))
		return nil
	}

	if err := s.users.SetPremium(ctx, user.ID, db.PremiumUpdate{IsPremium: false, Provider: ProviderStripe}); err != nil {
		return fmt.Errorf("failed to revoke premium for '%s': %w", user.ID, err)
	}
	log.Info("Premium revoked")
	return nil
}

func (s *billingService) CreatePreference(ctx context.Context, userID string) (string, error) {
	if s.mercadoPago == nil {
		return "", ErrBillingNotConfigured
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	pref, err := s.mercadoPago.CreatePreference(ctx, user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to create payment preference: %w", err)
	}
	s.logger.Info("Mercado Pago preference created", zap.String("userID", userID), zap.String("preferenceID", pref.ID))
	return pref.InitPoint, nil
}

// HandleMercadoPagoNotification re-fetches the payment instead of trusting the
// notification body. Only approved payments change anything.
func (s *billingService) HandleMercadoPagoNotification(ctx context.Context, paymentID string) error {
	if s.mercadoPago == nil {
		return ErrBillingNotConfigured
	}
	if paymentID == "" {
		return fmt.Errorf("%w: missing payment id", ErrInvalidWebhook)
	}
	payment, err := s.mercadoPago.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to fetch payment '%s': %w", paymentID, err)
	}
	if payment.Status != payments.PaymentApproved {
		s.logger.Info("Ignoring payment", zap.String("paymentID", paymentID), zap.String("status", payment.Status))
		return nil
	}
	if payment.ExternalReference == "" {
		return fmt.Errorf("%w: payment '%s' has no external reference", ErrInvalidWebhook, paymentID)
	}
	return s.activate(ctx, payment.ExternalReference, db.PremiumUpdate{IsPremium: true, Provider: ProviderMercadoPago})
}

// activate turns premium on. Repeated deliveries for an already premium user update
// the billing fields without a second premium.activated event.
func (s *billingService) activate(ctx context.Context, userID string, update db.PremiumUpdate) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsPremium {
		since := s.now()
		update.Since = &since
	}
	if err := s.users.SetPremium(ctx, userID, update); err != nil {
		return fmt.Errorf("failed to activate premium for '%s': %w", userID, err)
	}
	if user.IsPremium {
		return nil
	}

	s.logger.Info("Premium activated", zap.String("userID", userID), zap.String("provider", update.Provider))
	if err := s.publisher.Publish(ctx, events.New(events.PremiumActivated, userID, user.CoachID, map[string]string{
		"provider": update.Provider,
	})); err != nil {
		s.logger.Warn("Failed to publish premium activation", zap.String("userID", userID), zap.Error(err))
	}
	return nil
}
