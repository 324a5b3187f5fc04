package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice rows are created by the webhook reconciler on payment events
// and are immutable afterwards. Amount is in major currency units.
type Invoice struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID  *uuid.UUID `gorm:"type:uuid" json:"subscription_id"`
	StripeInvoiceID string     `gorm:"uniqueIndex;not null;size:255" json:"stripe_invoice_id"`
	Amount          float64    `gorm:"not null" json:"amount"`
	Currency        string     `gorm:"not null;size:10" json:"currency"`
	Status          string     `gorm:"not null;size:50" json:"status"`
	InvoiceURL      *string    `json:"invoice_url"`
	PaidAt          *time.Time `json:"paid_at"`
	CreatedAt       time.Time  `json:"created_at"`
}
