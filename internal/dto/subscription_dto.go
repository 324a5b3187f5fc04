package dto

import (
	"github.com/launchbase/launchbase-backend/internal/models"
	"gorm.io/datatypes"
)

type CheckoutRequest struct {
	PriceID string `json:"price_id"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type CancelRequest struct {
	Immediate bool `json:"immediate"`
}

type UpgradeRequest struct {
	NewPriceID string `json:"new_price_id"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

type PlanResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	DisplayName   string            `json:"display_name"`
	Tier          string            `json:"tier"`
	Price         float64           `json:"price"`
	Interval      string            `json:"interval"`
	Features      datatypes.JSONMap `json:"features"`
	IsPopular     bool              `json:"is_popular"`
	StripePriceID *string           `json:"stripe_price_id"`
	TrialDays     int               `json:"trial_days"`
}

// Usage holds computed trial/renewal counters for the current
// subscription; nil fields are omitted.
type Usage struct {
	RemainingTrialDays *int `json:"remaining_trial_days,omitempty"`
	DaysUntilRenewal   *int `json:"days_until_renewal,omitempty"`
}

type CurrentSubscriptionResponse struct {
	Subscription *models.Subscription `json:"subscription"`
	Usage        *Usage               `json:"usage,omitempty"`
}

type SubscriptionMutationResponse struct {
	Message      string               `json:"message"`
	Subscription *models.Subscription `json:"subscription"`
}

type InvoicesResponse struct {
	Invoices []models.Invoice `json:"invoices"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}
