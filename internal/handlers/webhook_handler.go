package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/launchbase/launchbase-backend/internal/dto"
	"github.com/launchbase/launchbase-backend/internal/payments"
	"github.com/launchbase/launchbase-backend/internal/services"
)

// WebhookHandler receives payment-processor events. Signature
// verification is the sole trust boundary; no user token is involved.
type WebhookHandler struct {
	webhookService *services.WebhookService
	gateway        payments.Gateway
}

func NewWebhookHandler(webhookService *services.WebhookService, gateway payments.Gateway) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, gateway: gateway}
}

// HandleStripe verifies the signature and acknowledges with 200 even
// when reconciliation fails internally. Failures are logged for follow-up.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing stripe-signature header",
		})
	}

	event, err := h.gateway.VerifyWebhook(c.Body(), signature)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid signature",
		})
	}

	if err := h.webhookService.HandleEvent(event); err != nil {
		slog.Error("webhook processing failed", "event_id", event.ID, "event_type", event.Type, "error", err)
	} else {
		slog.Info("webhook processed", "event_id", event.ID, "event_type", event.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}
