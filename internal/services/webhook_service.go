package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/config"
	"github.com/launchbase/launchbase-backend/internal/email"
	"github.com/launchbase/launchbase-backend/internal/models"
	"github.com/launchbase/launchbase-backend/internal/payments"
	"gorm.io/gorm"
)

// WebhookService reconciles verified payment-processor events into
// local subscription and invoice state. Handlers are idempotent:
// upserts are keyed by external ids, so replays and reordering are
// safe. Missing local records are logged and skipped, never fabricated.
type WebhookService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer email.Mailer
}

func NewWebhookService(db *gorm.DB, cfg *config.Config, mailer email.Mailer) *WebhookService {
	return &WebhookService{db: db, cfg: cfg, mailer: mailer}
}

func (s *WebhookService) HandleEvent(event *payments.Event) error {
	switch event.Type {
	case payments.EventCheckoutCompleted:
		var session payments.CheckoutSessionEvent
		if err := json.Unmarshal(event.Raw, &session); err != nil {
			return fmt.Errorf("malformed checkout session payload: %w", err)
		}
		return s.handleCheckoutCompleted(&session)

	case payments.EventSubscriptionCreated, payments.EventSubscriptionUpdated:
		var sub payments.SubscriptionEvent
		if err := json.Unmarshal(event.Raw, &sub); err != nil {
			return fmt.Errorf("malformed subscription payload: %w", err)
		}
		return s.handleSubscriptionUpserted(&sub)

	case payments.EventSubscriptionDeleted:
		var sub payments.SubscriptionEvent
		if err := json.Unmarshal(event.Raw, &sub); err != nil {
			return fmt.Errorf("malformed subscription payload: %w", err)
		}
		return s.handleSubscriptionDeleted(&sub)

	case payments.EventInvoicePaid:
		var inv payments.InvoiceEvent
		if err := json.Unmarshal(event.Raw, &inv); err != nil {
			return fmt.Errorf("malformed invoice payload: %w", err)
		}
		return s.handleInvoicePaid(&inv)

	case payments.EventInvoicePaymentFailed:
		var inv payments.InvoiceEvent
		if err := json.Unmarshal(event.Raw, &inv); err != nil {
			return fmt.Errorf("malformed invoice payload: %w", err)
		}
		return s.handleInvoicePaymentFailed(&inv)

	default:
		slog.Info("webhook event ignored", "type", event.Type, "event_id", event.ID)
		return nil
	}
}

// handleCheckoutCompleted attaches the external customer id to the
// user identified by session metadata or client reference.
func (s *WebhookService) handleCheckoutCompleted(session *payments.CheckoutSessionEvent) error {
	userID := session.Metadata["userId"]
	if userID == "" {
		userID = session.ClientReferenceID
	}
	if userID == "" {
		slog.Error("no user id in checkout session", "session_id", session.ID)
		return nil
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		slog.Error("invalid user id in checkout session", "session_id", session.ID, "user_id", userID)
		return nil
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		slog.Error("user not found for checkout session", "session_id", session.ID, "user_id", userID)
		return nil
	}

	if session.Customer != "" && user.StripeCustomerID == nil {
		if err := s.db.Model(&user).Update("stripe_customer_id", session.Customer).Error; err != nil {
			return fmt.Errorf("failed to attach customer id: %w", err)
		}
	}

	slog.Info("checkout completed", "user_id", user.ID.String())
	return nil
}

// handleSubscriptionUpserted upserts the local mirror keyed by the
// external subscription id and repoints the user's current
// subscription at it.
func (s *WebhookService) handleSubscriptionUpserted(ev *payments.SubscriptionEvent) error {
	var user models.User
	if err := s.db.Where("stripe_customer_id = ?", ev.Customer).First(&user).Error; err != nil {
		slog.Error("user not found for customer", "customer", ev.Customer, "subscription", ev.ID)
		return nil
	}

	priceID := ev.PriceID()
	if priceID == "" {
		slog.Error("no price id in subscription event", "subscription", ev.ID)
		return nil
	}

	var plan models.SubscriptionPlan
	if err := s.db.Where("stripe_price_id = ?", priceID).First(&plan).Error; err != nil {
		slog.Error("plan not found for price", "price_id", priceID, "subscription", ev.ID)
		return nil
	}

	status := mapStripeStatus(ev.Status)

	var sub models.Subscription
	err := s.db.Where("stripe_subscription_id = ?", ev.ID).First(&sub).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.Subscription{
			ID:                   uuid.New(),
			UserID:               user.ID,
			PlanID:               plan.ID,
			StripeSubscriptionID: ev.ID,
			Status:               status,
			CurrentPeriodStart:   unixToTime(ev.PeriodStart()),
			CurrentPeriodEnd:     unixToTime(ev.PeriodEnd()),
			CancelAtPeriodEnd:    ev.CancelAtPeriodEnd,
			CanceledAt:           unixToTime(ev.CanceledAt),
			TrialStart:           unixToTime(ev.TrialStart),
			TrialEnd:             unixToTime(ev.TrialEnd),
		}
		if err := s.db.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		created = true
	case err != nil:
		return fmt.Errorf("failed to look up subscription: %w", err)
	default:
		updates := map[string]interface{}{
			"user_id":              user.ID,
			"plan_id":              plan.ID,
			"status":               status,
			"current_period_start": unixToTime(ev.PeriodStart()),
			"current_period_end":   unixToTime(ev.PeriodEnd()),
			"cancel_at_period_end": ev.CancelAtPeriodEnd,
			"canceled_at":          unixToTime(ev.CanceledAt),
			"trial_start":          unixToTime(ev.TrialStart),
			"trial_end":            unixToTime(ev.TrialEnd),
		}
		if err := s.db.Model(&sub).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
	}

	if err := s.db.Model(&user).Update("current_subscription_id", sub.ID).Error; err != nil {
		return fmt.Errorf("failed to set current subscription: %w", err)
	}

	if created && status == models.StatusActive {
		name := ""
		if user.Name != nil {
			name = *user.Name
		}
		subject, html := email.ActivationBody(name, plan.DisplayName, unixToTime(ev.PeriodEnd()))
		email.SendAsync(s.mailer, user.Email, subject, html)
	}

	slog.Info("subscription reconciled", "subscription", ev.ID, "user_id", user.ID.String(), "status", status, "created", created)
	return nil
}

func (s *WebhookService) handleSubscriptionDeleted(ev *payments.SubscriptionEvent) error {
	var sub models.Subscription
	if err := s.db.Where("stripe_subscription_id = ?", ev.ID).First(&sub).Error; err != nil {
		slog.Error("subscription not found for deletion", "subscription", ev.ID)
		return nil
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sub).Updates(map[string]interface{}{
			"status":      models.StatusCanceled,
			"canceled_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND current_subscription_id = ?", sub.UserID, sub.ID).
			Update("current_subscription_id", nil).Error
	})
	if err != nil {
		return fmt.Errorf("failed to mark subscription deleted: %w", err)
	}

	slog.Info("subscription deleted", "subscription", ev.ID, "user_id", sub.UserID.String())
	return nil
}

// handleInvoicePaid records the payment (amounts arrive in minor units)
// and sends a receipt.
func (s *WebhookService) handleInvoicePaid(ev *payments.InvoiceEvent) error {
	if ev.Customer == "" {
		slog.Error("no customer id in invoice", "invoice", ev.ID)
		return nil
	}

	var user models.User
	if err := s.db.Where("stripe_customer_id = ?", ev.Customer).First(&user).Error; err != nil {
		slog.Error("user not found for customer", "customer", ev.Customer, "invoice", ev.ID)
		return nil
	}

	var subscriptionID *uuid.UUID
	if ev.Subscription != "" {
		var sub models.Subscription
		if err := s.db.Where("stripe_subscription_id = ?", ev.Subscription).First(&sub).Error; err == nil {
			subscriptionID = &sub.ID
		}
	}

	var existing models.Invoice
	if err := s.db.Where("stripe_invoice_id = ?", ev.ID).First(&existing).Error; err == nil {
		slog.Info("invoice already recorded", "invoice", ev.ID)
		return nil
	}

	amount := float64(ev.AmountPaid) / 100
	paidAt := unixToTime(ev.StatusTransitions.PaidAt)
	invoice := models.Invoice{
		ID:              uuid.New(),
		UserID:          user.ID,
		SubscriptionID:  subscriptionID,
		StripeInvoiceID: ev.ID,
		Amount:          amount,
		Currency:        ev.Currency,
		Status:          "PAID",
		PaidAt:          paidAt,
	}
	if ev.HostedInvoiceURL != "" {
		invoice.InvoiceURL = &ev.HostedInvoiceURL
	}
	if err := s.db.Create(&invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	when := time.Now()
	if paidAt != nil {
		when = *paidAt
	}
	subject, html := email.ReceiptBody(name, amount, ev.Currency, when, ev.HostedInvoiceURL)
	email.SendAsync(s.mailer, user.Email, subject, html)

	slog.Info("invoice recorded", "invoice", ev.ID, "user_id", user.ID.String(), "amount", amount)
	return nil
}

func (s *WebhookService) handleInvoicePaymentFailed(ev *payments.InvoiceEvent) error {
	if ev.Customer == "" {
		slog.Error("no customer id in invoice", "invoice", ev.ID)
		return nil
	}

	var user models.User
	if err := s.db.Where("stripe_customer_id = ?", ev.Customer).First(&user).Error; err != nil {
		slog.Error("user not found for customer", "customer", ev.Customer, "invoice", ev.ID)
		return nil
	}

	if ev.Subscription != "" {
		var sub models.Subscription
		if err := s.db.Where("stripe_subscription_id = ?", ev.Subscription).First(&sub).Error; err == nil {
			if err := s.db.Model(&sub).Update("status", models.StatusPastDue).Error; err != nil {
				return fmt.Errorf("failed to mark subscription past due: %w", err)
			}
		}
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	subject, html := email.PaymentFailedBody(name, float64(ev.AmountDue)/100, ev.Currency, s.cfg.AppBaseURL)
	email.SendAsync(s.mailer, user.Email, subject, html)

	slog.Info("invoice payment failed", "invoice", ev.ID, "user_id", user.ID.String())
	return nil
}

// mapStripeStatus maps external subscription statuses to local ones.
// Paused is treated as terminal; anything unrecognized is INCOMPLETE.
func mapStripeStatus(external string) string {
	switch external {
	case "active":
		return models.StatusActive
	case "canceled":
		return models.StatusCanceled
	case "incomplete":
		return models.StatusIncomplete
	case "incomplete_expired":
		return models.StatusIncompleteExpired
	case "past_due":
		return models.StatusPastDue
	case "trialing":
		return models.StatusTrialing
	case "unpaid":
		return models.StatusUnpaid
	case "paused":
		return models.StatusCanceled
	default:
		return models.StatusIncomplete
	}
}
