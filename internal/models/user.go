package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email                 string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	HashedPassword        string         `gorm:"not null" json:"-"`
	Name                  *string        `gorm:"size:255" json:"name"`
	IsVerified            bool           `gorm:"not null;default:false" json:"is_verified"`
	StripeCustomerID      *string        `gorm:"size:255;index" json:"-"`
	CurrentSubscriptionID *uuid.UUID     `gorm:"type:uuid" json:"current_subscription_id"`
	CurrentSubscription   *Subscription  `gorm:"foreignKey:CurrentSubscriptionID" json:"current_subscription,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}
