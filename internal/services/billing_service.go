package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/config"
	"github.com/launchbase/launchbase-backend/internal/dto"
	"github.com/launchbase/launchbase-backend/internal/email"
	"github.com/launchbase/launchbase-backend/internal/models"
	"github.com/launchbase/launchbase-backend/internal/payments"
	"gorm.io/gorm"
)

// BillingService orchestrates plan catalog reads and the user-driven
// half of the subscription lifecycle. The gateway remains the source
// of truth; local rows are optimistic mirrors confirmed by webhooks.
type BillingService struct {
	db      *gorm.DB
	cfg     *config.Config
	gateway payments.Gateway
	mailer  email.Mailer
}

func NewBillingService(db *gorm.DB, cfg *config.Config, gateway payments.Gateway, mailer email.Mailer) *BillingService {
	return &BillingService{db: db, cfg: cfg, gateway: gateway, mailer: mailer}
}

func (s *BillingService) ListPlans() ([]dto.PlanResponse, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.Where("is_active = ?", true).Order("price asc").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	resp := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, dto.PlanResponse{
			ID:            p.ID.String(),
			Name:          p.Name,
			DisplayName:   p.DisplayName,
			Tier:          TierForPlan(&p),
			Price:         p.Price,
			Interval:      p.Interval,
			Features:      p.Features,
			IsPopular:     strings.HasPrefix(p.Name, "PRO_"),
			StripePriceID: p.StripePriceID,
			TrialDays:     p.TrialDays,
		})
	}
	return resp, nil
}

func (s *BillingService) CreateCheckout(userID uuid.UUID, priceID string) (*dto.CheckoutResponse, error) {
	if priceID == "" {
		return nil, NewValidationError("price_id is required")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	var plan models.SubscriptionPlan
	if err := s.db.Where("stripe_price_id = ?", priceID).First(&plan).Error; err != nil {
		return nil, ErrUnknownPlan
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	customer, err := s.gateway.GetOrCreateCustomer(user.Email, user.ID.String(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create customer: %w", err)
	}

	if user.StripeCustomerID == nil {
		if err := s.db.Model(&user).Update("stripe_customer_id", customer.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to store customer id: %w", err)
		}
	}

	session, err := s.gateway.CreateCheckoutSession(user.ID.String(), user.Email, priceID, plan.TrialDays)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

func (s *BillingService) CurrentSubscription(userID uuid.UUID) (*dto.CurrentSubscriptionResponse, error) {
	var user models.User
	err := s.db.Preload("CurrentSubscription.Plan").First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, ErrUserNotFound
	}

	resp := &dto.CurrentSubscriptionResponse{Subscription: user.CurrentSubscription}
	if sub := user.CurrentSubscription; sub != nil {
		now := time.Now()
		usage := &dto.Usage{}
		if days := RemainingTrialDays(sub.TrialEnd, now); days > 0 {
			usage.RemainingTrialDays = &days
		}
		if days := RenewalDays(sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd, now); days != nil && *days > 0 {
			usage.DaysUntilRenewal = days
		}
		if usage.RemainingTrialDays != nil || usage.DaysUntilRenewal != nil {
			resp.Usage = usage
		}
	}
	return resp, nil
}

// Cancel hard-cancels immediately or flags cancel-at-period-end. The
// local row is updated synchronously; the webhook confirms later.
func (s *BillingService) Cancel(userID uuid.UUID, immediate bool) (*dto.SubscriptionMutationResponse, error) {
	var user models.User
	err := s.db.Preload("CurrentSubscription.Plan").First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, ErrUserNotFound
	}
	sub := user.CurrentSubscription
	if sub == nil {
		return nil, ErrNoSubscription
	}
	if sub.StripeSubscriptionID == "" {
		return nil, ErrMissingStripeID
	}

	if _, err := s.gateway.CancelSubscription(sub.StripeSubscriptionID, immediate); err != nil {
		return nil, fmt.Errorf("gateway cancel failed: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"cancel_at_period_end": !immediate,
		"canceled_at":          now,
	}
	if immediate {
		updates["status"] = models.StatusCanceled
	}
	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	sub.CancelAtPeriodEnd = !immediate
	sub.CanceledAt = &now
	if immediate {
		sub.Status = models.StatusCanceled
		if err := s.db.Model(&user).Update("current_subscription_id", nil).Error; err != nil {
			return nil, fmt.Errorf("failed to clear current subscription: %w", err)
		}
	}

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	subject, html := email.CancellationBody(name, sub.Plan.DisplayName, immediate, sub.CurrentPeriodEnd)
	email.SendAsync(s.mailer, user.Email, subject, html)

	message := "Subscription will be canceled at the end of the billing period"
	if immediate {
		message = "Subscription canceled immediately"
	}
	return &dto.SubscriptionMutationResponse{Message: message, Subscription: sub}, nil
}

// Upgrade swaps the subscription's price; the processor prorates.
func (s *BillingService) Upgrade(userID uuid.UUID, newPriceID string) (*dto.SubscriptionMutationResponse, error) {
	if newPriceID == "" {
		return nil, NewValidationError("new_price_id is required")
	}

	var user models.User
	err := s.db.Preload("CurrentSubscription.Plan").First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, ErrUserNotFound
	}
	sub := user.CurrentSubscription
	if sub == nil {
		return nil, ErrNoSubscription
	}
	if sub.StripeSubscriptionID == "" {
		return nil, ErrMissingStripeID
	}

	var newPlan models.SubscriptionPlan
	if err := s.db.Where("stripe_price_id = ?", newPriceID).First(&newPlan).Error; err != nil {
		return nil, ErrUnknownPlan
	}

	updated, err := s.gateway.UpdateSubscription(sub.StripeSubscriptionID, newPriceID)
	if err != nil {
		return nil, fmt.Errorf("gateway update failed: %w", err)
	}

	updates := map[string]interface{}{"plan_id": newPlan.ID}
	if start := unixToTime(updated.CurrentPeriodStart); start != nil {
		updates["current_period_start"] = *start
		sub.CurrentPeriodStart = start
	}
	if end := unixToTime(updated.CurrentPeriodEnd); end != nil {
		updates["current_period_end"] = *end
		sub.CurrentPeriodEnd = end
	}
	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	sub.PlanID = newPlan.ID
	sub.Plan = newPlan

	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	subject, html := email.UpgradeBody(name, newPlan.DisplayName, sub.CurrentPeriodEnd)
	email.SendAsync(s.mailer, user.Email, subject, html)

	return &dto.SubscriptionMutationResponse{
		Message:      "Subscription updated successfully",
		Subscription: sub,
	}, nil
}

func (s *BillingService) BillingPortal(userID uuid.UUID) (string, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return "", ErrUserNotFound
	}
	if user.StripeCustomerID == nil {
		return "", ErrNoStripeCustomer
	}
	url, err := s.gateway.CreateBillingPortalSession(*user.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("gateway portal session failed: %w", err)
	}
	return url, nil
}

func (s *BillingService) ListInvoices(userID uuid.UUID, page, limit int) (*dto.InvoicesResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	var invoices []models.Invoice
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	var total int64
	if err := s.db.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	return &dto.InvoicesResponse{
		Invoices: invoices,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func unixToTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0)
	return &t
}
