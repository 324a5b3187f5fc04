package services

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/auth"
	"github.com/launchbase/launchbase-backend/internal/config"
	"github.com/launchbase/launchbase-backend/internal/database"
	"github.com/launchbase/launchbase-backend/internal/models"
	"github.com/launchbase/launchbase-backend/internal/payments"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDeps struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer *recordingMailer
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  168 * time.Hour,
		AppBaseURL: "http://localhost:3000",
	}
}

type sentMail struct {
	To      string
	Subject string
}

// recordingMailer captures sends; SendAsync delivers from a goroutine,
// so access is guarded.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return nil
}

// fakeGateway returns canned responses and records cancel calls.
type fakeGateway struct {
	customer    *payments.Customer
	session     *payments.CheckoutSession
	portalURL   string
	updated     *payments.Subscription
	canceled    *payments.Subscription
	err         error
	cancelCalls []bool
}

func (g *fakeGateway) GetOrCreateCustomer(email, userID, name string) (*payments.Customer, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.customer != nil {
		return g.customer, nil
	}
	return &payments.Customer{ID: "cus_test", Email: email}, nil
}

func (g *fakeGateway) CreateCheckoutSession(userID, userEmail, priceID string, trialDays int) (*payments.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.session != nil {
		return g.session, nil
	}
	return &payments.CheckoutSession{ID: "cs_test", URL: "https://checkout.example.com/cs_test"}, nil
}

func (g *fakeGateway) CreateBillingPortalSession(customerID string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if g.portalURL != "" {
		return g.portalURL, nil
	}
	return "https://billing.example.com/session", nil
}

func (g *fakeGateway) UpdateSubscription(subscriptionID, newPriceID string) (*payments.Subscription, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.updated != nil {
		return g.updated, nil
	}
	return &payments.Subscription{ID: subscriptionID, PriceID: newPriceID, Status: "active"}, nil
}

func (g *fakeGateway) CancelSubscription(subscriptionID string, immediate bool) (*payments.Subscription, error) {
	g.cancelCalls = append(g.cancelCalls, immediate)
	if g.err != nil {
		return nil, g.err
	}
	if g.canceled != nil {
		return g.canceled, nil
	}
	return &payments.Subscription{ID: subscriptionID, Status: "active"}, nil
}

func (g *fakeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*payments.Event, error) {
	return nil, payments.ErrInvalidSignature
}

func createUser(t *testing.T, db *gorm.DB, emailAddr string, verified bool) *models.User {
	t.Helper()
	digest, err := auth.HashPassword("ValidPass1")
	require.NoError(t, err)
	user := &models.User{
		ID:             uuid.New(),
		Email:          emailAddr,
		HashedPassword: digest,
		IsVerified:     verified,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPlan(t *testing.T, db *gorm.DB, name, tier, priceID string, price float64) *models.SubscriptionPlan {
	t.Helper()
	plan := &models.SubscriptionPlan{
		ID:          uuid.New(),
		Name:        name,
		DisplayName: name,
		Tier:        tier,
		Price:       price,
		Interval:    models.IntervalMonthly,
		IsActive:    true,
	}
	if priceID != "" {
		plan.StripePriceID = &priceID
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func attachSubscription(t *testing.T, db *gorm.DB, user *models.User, plan *models.SubscriptionPlan, status, stripeID string) *models.Subscription {
	t.Helper()
	end := time.Now().Add(20 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               user.ID,
		PlanID:               plan.ID,
		StripeSubscriptionID: stripeID,
		Status:               status,
		CurrentPeriodEnd:     &end,
	}
	require.NoError(t, db.Create(sub).Error)
	require.NoError(t, db.Model(user).Update("current_subscription_id", sub.ID).Error)
	user.CurrentSubscriptionID = &sub.ID
	return sub
}
