package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedPlans inserts the subscription plan catalog if the rows are
// missing. Existing rows are left untouched so price changes made
// out-of-band survive restarts.
func SeedPlans(db *gorm.DB) error {
	plans := []models.SubscriptionPlan{
		{
			Name:        "FREE",
			DisplayName: "Free Plan",
			Tier:        models.TierFree,
			Price:       0,
			Interval:    models.IntervalLifetime,
			TrialDays:   0,
			Features: datatypes.JSONMap{
				"maxProjects":     3,
				"maxUsers":        1,
				"maxStorageGB":    1,
				"apiAccess":       false,
				"prioritySupport": false,
				"customDomain":    false,
				"analytics":       false,
			},
			IsActive: true,
		},
		{
			Name:          "PRO_MONTHLY",
			DisplayName:   "Pro Plan (Monthly)",
			Tier:          models.TierPro,
			StripePriceID: priceIDFromEnv("STRIPE_PRICE_ID_PRO_MONTHLY", "price_pro_monthly"),
			Price:         29.99,
			Interval:      models.IntervalMonthly,
			TrialDays:     14,
			Features:      proFeatures(),
			IsActive:      true,
		},
		{
			Name:          "PRO_YEARLY",
			DisplayName:   "Pro Plan (Yearly)",
			Tier:          models.TierPro,
			StripePriceID: priceIDFromEnv("STRIPE_PRICE_ID_PRO_YEARLY", "price_pro_yearly"),
			Price:         299.99,
			Interval:      models.IntervalYearly,
			TrialDays:     14,
			Features:      proFeatures(),
			IsActive:      true,
		},
		{
			Name:          "PREMIUM_MONTHLY",
			DisplayName:   "Premium Plan (Monthly)",
			Tier:          models.TierPremium,
			StripePriceID: priceIDFromEnv("STRIPE_PRICE_ID_PREMIUM_MONTHLY", "price_premium_monthly"),
			Price:         99.99,
			Interval:      models.IntervalMonthly,
			TrialDays:     14,
			Features:      premiumFeatures(),
			IsActive:      true,
		},
		{
			Name:          "PREMIUM_YEARLY",
			DisplayName:   "Premium Plan (Yearly)",
			Tier:          models.TierPremium,
			StripePriceID: priceIDFromEnv("STRIPE_PRICE_ID_PREMIUM_YEARLY", "price_premium_yearly"),
			Price:         999.99,
			Interval:      models.IntervalYearly,
			TrialDays:     14,
			Features:      premiumFeatures(),
			IsActive:      true,
		},
	}

	for i := range plans {
		var existing models.SubscriptionPlan
		err := db.Where("name = ?", plans[i].Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up plan %s: %w", plans[i].Name, err)
		}

		plans[i].ID = uuid.New()
		if err := db.Create(&plans[i]).Error; err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", plans[i].Name, err)
		}
		slog.Info("subscription plan seeded", "plan", plans[i].Name)
	}
	return nil
}

func proFeatures() datatypes.JSONMap {
	return datatypes.JSONMap{
		"maxProjects":     20,
		"maxUsers":        5,
		"maxStorageGB":    50,
		"apiAccess":       true,
		"prioritySupport": true,
		"customDomain":    false,
		"analytics":       true,
	}
}

func premiumFeatures() datatypes.JSONMap {
	return datatypes.JSONMap{
		"maxProjects":      -1,
		"maxUsers":         -1,
		"maxStorageGB":     500,
		"apiAccess":        true,
		"prioritySupport":  true,
		"customDomain":     true,
		"analytics":        true,
		"whiteLabel":       true,
		"dedicatedSupport": true,
	}
}

func priceIDFromEnv(key, fallback string) *string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	return &v
}
