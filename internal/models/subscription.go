package models

import (
	"time"

	"github.com/google/uuid"
)

// Local subscription statuses, mirrored from the payment processor.
const (
	StatusActive            = "ACTIVE"
	StatusCanceled          = "CANCELED"
	StatusPastDue           = "PAST_DUE"
	StatusTrialing          = "TRIALING"
	StatusIncomplete        = "INCOMPLETE"
	StatusIncompleteExpired = "INCOMPLETE_EXPIRED"
	StatusUnpaid            = "UNPAID"
)

// Subscription mirrors one Stripe subscription. The webhook reconciler
// is the source of truth; cancel/upgrade handlers update it optimistically.
type Subscription struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID               uuid.UUID        `gorm:"type:uuid;not null" json:"plan_id"`
	StripeSubscriptionID string           `gorm:"uniqueIndex;not null;size:255" json:"stripe_subscription_id"`
	Status               string           `gorm:"not null;size:50" json:"status"`
	CurrentPeriodStart   *time.Time       `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time       `json:"current_period_end"`
	CancelAtPeriodEnd    bool             `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time       `json:"canceled_at"`
	TrialStart           *time.Time       `json:"trial_start"`
	TrialEnd             *time.Time       `json:"trial_end"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	Plan                 SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan"`
	User                 User             `gorm:"foreignKey:UserID" json:"-"`
}
