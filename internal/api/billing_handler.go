package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/core"
)

// maxWebhookBytes bounds webhook bodies; Stripe events are well under this.
const maxWebhookBytes = 64 << 10

// BillingHandler handles billing-related API endpoints.
type BillingHandler struct {
	billingService core.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService) *BillingHandler {
	return &BillingHandler{billingService: bs}
}

// mercadoPagoNotification is the JSON body of a Mercado Pago webhook.
type mercadoPagoNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func mapBillingErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrBillingNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Payment provider not configured"})
	case errors.Is(err, core.ErrNoSubscription):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No active Stripe subscription"})
	case errors.Is(err, core.ErrInvalidWebhook):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Webhook rejected", Details: err.Error()})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payment provider error"})
	}
}

// CreateCheckoutSession handles POST /billing/stripe/checkout.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	url, err := h.billingService.CreateCheckoutSession(c.Request.Context(), uid)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, URLResponse{URL: url})
}

// CreatePortalSession handles POST /billing/stripe/portal.
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	url, err := h.billingService.CreatePortalSession(c.Request.Context(), uid)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, URLResponse{URL: url})
}

// CreatePreference handles POST /billing/mercadopago/preference.
func (h *BillingHandler) CreatePreference(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	initPoint, err := h.billingService.CreatePreference(c.Request.Context(), uid)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, URLResponse{URL: initPoint})
}

// HandleStripeWebhook handles POST /billing/webhooks/stripe. It is public;
// Stripe authenticates through the Stripe-Signature header.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing Stripe-Signature header"})
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		badRequest(c, "Failed to read webhook payload", err)
		return
	}
	if err := h.billingService.HandleStripeWebhook(c.Request.Context(), payload, signature); err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Webhook received successfully"})
}

// HandleMercadoPagoWebhook handles POST /billing/webhooks/mercadopago. The
// payment ID arrives as ?data.id= (webhooks), ?id= with topic=payment (IPN)
// or in the JSON body. Non-payment topics are acknowledged and ignored.
func (h *BillingHandler) HandleMercadoPagoWebhook(c *gin.Context) {
	topic := c.Query("type")
	if topic == "" {
		topic = c.Query("topic")
	}
	paymentID := c.Query("data.id")
	if paymentID == "" && topic == "payment" {
		paymentID = c.Query("id")
	}
	if paymentID == "" {
		var body mercadoPagoNotification
		if err := c.ShouldBindJSON(&body); err == nil {
			if topic == "" {
				topic = body.Type
			}
			paymentID = body.Data.ID
		}
	}

	if topic != "" && topic != "payment" {
		c.JSON(http.StatusOK, SuccessResponse{Message: "Notification ignored"})
		return
	}
	if err := h.billingService.HandleMercadoPagoNotification(c.Request.Context(), paymentID); err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification received successfully"})
}
