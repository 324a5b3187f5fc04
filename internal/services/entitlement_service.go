package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/models"
	"gorm.io/gorm"
)

var tierRank = map[string]int{
	models.TierFree:    0,
	models.TierPro:     1,
	models.TierPremium: 2,
}

// Feature sets are strictly additive: FREE ⊂ PRO ⊂ PREMIUM.
var tierFeatures = map[string][]string{
	models.TierFree: {
		"basic_features",
		"limited_projects",
	},
	models.TierPro: {
		"basic_features",
		"limited_projects",
		"advanced_features",
		"api_access",
		"priority_support",
	},
	models.TierPremium: {
		"basic_features",
		"limited_projects",
		"advanced_features",
		"api_access",
		"priority_support",
		"custom_domain",
		"analytics",
		"white_label",
		"dedicated_support",
	},
}

// Limits per tier; -1 means unlimited.
type Limits struct {
	MaxProjects      int `json:"max_projects"`
	MaxUsers         int `json:"max_users"`
	MaxStorageGB     int `json:"max_storage_gb"`
	APICallsPerMonth int `json:"api_calls_per_month"`
}

var tierLimits = map[string]Limits{
	models.TierFree:    {MaxProjects: 3, MaxUsers: 1, MaxStorageGB: 1, APICallsPerMonth: 100},
	models.TierPro:     {MaxProjects: 20, MaxUsers: 5, MaxStorageGB: 50, APICallsPerMonth: 10000},
	models.TierPremium: {MaxProjects: -1, MaxUsers: -1, MaxStorageGB: 500, APICallsPerMonth: -1},
}

// EntitlementService derives tier, feature access and usage limits
// from a user's current subscription.
type EntitlementService struct {
	db *gorm.DB
}

func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{db: db}
}

// Entitlements bundles what a client needs to gate features.
type Entitlements struct {
	Tier     string   `json:"tier"`
	Features []string `json:"features"`
	Limits   Limits   `json:"limits"`
}

func (s *EntitlementService) GetEntitlements(userID uuid.UUID) (*Entitlements, error) {
	tier, err := s.ResolveTier(userID)
	if err != nil {
		return nil, err
	}
	return &Entitlements{
		Tier:     tier,
		Features: tierFeatures[tier],
		Limits:   tierLimits[tier],
	}, nil
}

// ResolveTier prefers the plan's explicit tier column; plans without
// one (legacy rows) fall back to a case-insensitive name match.
func (s *EntitlementService) ResolveTier(userID uuid.UUID) (string, error) {
	var user models.User
	err := s.db.Preload("CurrentSubscription.Plan").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TierFree, nil
		}
		return "", err
	}
	if user.CurrentSubscription == nil {
		return models.TierFree, nil
	}
	return TierForPlan(&user.CurrentSubscription.Plan), nil
}

// TierForPlan maps a catalog plan to its entitlement tier.
func TierForPlan(plan *models.SubscriptionPlan) string {
	if _, ok := tierRank[plan.Tier]; ok && plan.Tier != "" {
		return plan.Tier
	}
	name := strings.ToUpper(plan.Name)
	switch {
	case strings.Contains(name, "PREMIUM"):
		return models.TierPremium
	case strings.Contains(name, "PRO"):
		return models.TierPro
	}
	return models.TierFree
}

func (s *EntitlementService) HasActiveSubscription(userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status IN ?", userID, []string{models.StatusActive, models.StatusTrialing}).
		Count(&count).Error
	return count > 0, err
}

func (s *EntitlementService) IsInGracePeriod(userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.StatusPastDue).
		Count(&count).Error
	return count > 0, err
}

func (s *EntitlementService) CanAccessFeature(userID uuid.UUID, feature string) (bool, error) {
	tier, err := s.ResolveTier(userID)
	if err != nil {
		return false, err
	}
	for _, f := range tierFeatures[tier] {
		if f == feature {
			return true, nil
		}
	}
	return false, nil
}

func (s *EntitlementService) GetLimits(userID uuid.UUID) (Limits, error) {
	tier, err := s.ResolveTier(userID)
	if err != nil {
		return Limits{}, err
	}
	return tierLimits[tier], nil
}

func (s *EntitlementService) RequireTier(userID uuid.UUID, minTier string) error {
	tier, err := s.ResolveTier(userID)
	if err != nil {
		return err
	}
	if tierRank[tier] < tierRank[minTier] {
		return ErrInsufficientTier
	}
	return nil
}

// DaysUntilRenewal returns nil when the user has no subscription, no
// period end, or the subscription is set to cancel at period end.
func (s *EntitlementService) DaysUntilRenewal(userID uuid.UUID) (*int, error) {
	var user models.User
	err := s.db.Preload("CurrentSubscription").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sub := user.CurrentSubscription
	if sub == nil {
		return nil, nil
	}
	days := RenewalDays(sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd, time.Now())
	return days, nil
}

// RemainingTrialDays is ceil((trialEnd - now) / day), clamped at 0.
func RemainingTrialDays(trialEnd *time.Time, now time.Time) int {
	if trialEnd == nil || !trialEnd.After(now) {
		return 0
	}
	return int(math.Ceil(trialEnd.Sub(now).Hours() / 24))
}

// RenewalDays is nil when renewal will not happen, otherwise the
// ceiling of the remaining period in days, clamped at 0.
func RenewalDays(periodEnd *time.Time, cancelAtPeriodEnd bool, now time.Time) *int {
	if periodEnd == nil || cancelAtPeriodEnd {
		return nil
	}
	days := 0
	if periodEnd.After(now) {
		days = int(math.Ceil(periodEnd.Sub(now).Hours() / 24))
	}
	return &days
}
