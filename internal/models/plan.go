package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Billing intervals for a plan.
const (
	IntervalMonthly  = "monthly"
	IntervalYearly   = "yearly"
	IntervalLifetime = "lifetime"
)

// Entitlement tiers, ordered FREE < PRO < PREMIUM.
const (
	TierFree    = "FREE"
	TierPro     = "PRO"
	TierPremium = "PREMIUM"
)

// SubscriptionPlan is a catalog entry, seeded at boot and read-mostly.
// Tier is the explicit entitlement level; rows without one fall back to
// name matching in the entitlement resolver.
type SubscriptionPlan struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string            `gorm:"not null;size:100;uniqueIndex" json:"name"`
	DisplayName   string            `gorm:"not null;size:255" json:"display_name"`
	Tier          string            `gorm:"size:20" json:"tier"`
	StripePriceID *string           `gorm:"size:255;index" json:"stripe_price_id"`
	Price         float64           `gorm:"not null" json:"price"`
	Interval      string            `gorm:"not null;size:20" json:"interval"`
	TrialDays     int               `gorm:"not null;default:0" json:"trial_days"`
	Features      datatypes.JSONMap `json:"features"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
