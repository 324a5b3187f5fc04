package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/launchbase/launchbase-backend/internal/models"
	"github.com/launchbase/launchbase-backend/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newWebhookService(t *testing.T) (*WebhookService, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	svc := NewWebhookService(db, testConfig(), &recordingMailer{})
	return svc, db
}

func subscriptionEventJSON(subID, customer, status, priceID string, periodEnd int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"customer": %q,
		"status": %q,
		"cancel_at_period_end": false,
		"items": {"data": [{
			"id": "si_1",
			"current_period_start": %d,
			"current_period_end": %d,
			"price": {"id": %q}
		}]}
	}`, subID, customer, status, periodEnd-30*24*3600, periodEnd, priceID))
}

func TestHandleEvent_SubscriptionCreated(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "hook@example.com", true)
	customerID := "cus_hook"
	require.NoError(t, db.Model(user).Update("stripe_customer_id", customerID).Error)
	plan := createPlan(t, db, "PRO_MONTHLY", models.TierPro, "price_pro_m", 29.99)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	event := &payments.Event{
		ID:   "evt_1",
		Type: payments.EventSubscriptionCreated,
		Raw:  subscriptionEventJSON("sub_hook", customerID, "active", "price_pro_m", periodEnd),
	}
	require.NoError(t, svc.HandleEvent(event))

	var sub models.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_hook").First(&sub).Error)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.Equal(t, user.ID, sub.UserID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())

	var after models.User
	require.NoError(t, db.First(&after, "id = ?", user.ID).Error)
	require.NotNil(t, after.CurrentSubscriptionID)
	assert.Equal(t, sub.ID, *after.CurrentSubscriptionID)
}

func TestHandleEvent_SubscriptionReplayIsIdempotent(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "replay@example.com", true)
	require.NoError(t, db.Model(user).Update("stripe_customer_id", "cus_replay").Error)
	createPlan(t, db, "PRO_MONTHLY", models.TierPro, "price_pro_m", 29.99)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	event := &payments.Event{
		ID:   "evt_replay",
		Type: payments.EventSubscriptionCreated,
		Raw:  subscriptionEventJSON("sub_replay", "cus_replay", "active", "price_pro_m", periodEnd),
	}
	require.NoError(t, svc.HandleEvent(event))
	require.NoError(t, svc.HandleEvent(event))

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("stripe_subscription_id = ?", "sub_replay").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleEvent_SubscriptionUpdatedChangesStatus(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "update@example.com", true)
	require.NoError(t, db.Model(user).Update("stripe_customer_id", "cus_update").Error)
	createPlan(t, db, "PRO_MONTHLY", models.TierPro, "price_pro_m", 29.99)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	created := &payments.Event{
		ID:   "evt_c",
		Type: payments.EventSubscriptionCreated,
		Raw:  subscriptionEventJSON("sub_update", "cus_update", "trialing", "price_pro_m", periodEnd),
	}
	require.NoError(t, svc.HandleEvent(created))

	updated := &payments.Event{
		ID:   "evt_u",
		Type: payments.EventSubscriptionUpdated,
		Raw:  subscriptionEventJSON("sub_update", "cus_update", "past_due", "price_pro_m", periodEnd),
	}
	require.NoError(t, svc.HandleEvent(updated))

	var sub models.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_update").First(&sub).Error)
	assert.Equal(t, models.StatusPastDue, sub.Status)
}

func TestHandleEvent_SubscriptionDeleted(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "delete@example.com", true)
	plan := createPlan(t, db, "PRO_MONTHLY", models.TierPro, "price_pro_m", 29.99)
	sub := attachSubscription(t, db, user, plan, models.StatusActive, "sub_delete")

	event := &payments.Event{
		ID:   "evt_d",
		Type: payments.EventSubscriptionDeleted,
		Raw:  json.RawMessage(`{"id": "sub_delete"}`),
	}
	require.NoError(t, svc.HandleEvent(event))

	var after models.Subscription
	require.NoError(t, db.First(&after, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusCanceled, after.Status)
	assert.NotNil(t, after.CanceledAt)

	var u models.User
	require.NoError(t, db.First(&u, "id = ?", user.ID).Error)
	assert.Nil(t, u.CurrentSubscriptionID)
}

func TestHandleEvent_CheckoutCompleted(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "complete@example.com", true)

	raw := fmt.Sprintf(`{"id": "cs_1", "customer": "cus_complete", "metadata": {"userId": %q}}`, user.ID.String())
	event := &payments.Event{ID: "evt_cs", Type: payments.EventCheckoutCompleted, Raw: json.RawMessage(raw)}
	require.NoError(t, svc.HandleEvent(event))

	var after models.User
	require.NoError(t, db.First(&after, "id = ?", user.ID).Error)
	require.NotNil(t, after.StripeCustomerID)
	assert.Equal(t, "cus_complete", *after.StripeCustomerID)
}

func TestHandleEvent_InvoicePaid(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "paid@example.com", true)
	require.NoError(t, db.Model(user).Update("stripe_customer_id", "cus_paid").Error)
	plan := createPlan(t, db, "PRO_MONTHLY", models.TierPro, "price_pro_m", 29.99)
	sub := attachSubscription(t, db, user, plan, models.StatusActive, "sub_paid")

	raw := `{
		"id": "in_1",
		"customer": "cus_paid",
		"subscription": "sub_paid",
		"amount_paid": 2999,
		"currency": "usd",
		"hosted_invoice_url": "https://invoices.example.com/in_1",
		"status_transitions": {"paid_at": 1700000000}
	}`
	event := &payments.Event{ID: "evt_in", Type: payments.EventInvoicePaid, Raw: json.RawMessage(raw)}
	require.NoError(t, svc.HandleEvent(event))

	var invoice models.Invoice
	require.NoError(t, db.Where("stripe_invoice_id = ?", "in_1").First(&invoice).Error)
	assert.Equal(t, user.ID, invoice.UserID)
	require.NotNil(t, invoice.SubscriptionID)
	assert.Equal(t, sub.ID, *invoice.SubscriptionID)
	assert.InDelta(t, 29.99, invoice.Amount, 0.001)
	assert.Equal(t, "PAID", invoice.Status)
	require.NotNil(t, invoice.PaidAt)

	// Redelivery does not duplicate.
	require.NoError(t, svc.HandleEvent(event))
	var count int64
	require.NoError(t, db.Model(&models.Invoice{}).Where("stripe_invoice_id = ?", "in_1").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHandleEvent_InvoicePaymentFailed(t *testing.T) {
	svc, db := newWebhookService(t)
	user := createUser(t, db, "failed@example.com", true)
	require.NoError(t, db.Model(user).Update("stripe_customer_id", "cus_failed").Error)
	plan := createPlan(t, db, "PRO_MONTHLY", models.TierPro, "price_pro_m", 29.99)
	sub := attachSubscription(t, db, user, plan, models.StatusActive, "sub_failed")

	raw := `{"id": "in_2", "customer": "cus_failed", "subscription": "sub_failed", "amount_due": 2999, "currency": "usd"}`
	event := &payments.Event{ID: "evt_fail", Type: payments.EventInvoicePaymentFailed, Raw: json.RawMessage(raw)}
	require.NoError(t, svc.HandleEvent(event))

	var after models.Subscription
	require.NoError(t, db.First(&after, "id = ?", sub.ID).Error)
	assert.Equal(t, models.StatusPastDue, after.Status)
}

func TestHandleEvent_UnknownResourcesAreSkipped(t *testing.T) {
	svc, _ := newWebhookService(t)

	// No matching user, subscription or plan: logged and acknowledged.
	events := []*payments.Event{
		{ID: "e1", Type: payments.EventSubscriptionCreated, Raw: subscriptionEventJSON("sub_x", "cus_x", "active", "price_x", time.Now().Unix())},
		{ID: "e2", Type: payments.EventSubscriptionDeleted, Raw: json.RawMessage(`{"id": "sub_x"}`)},
		{ID: "e3", Type: payments.EventInvoicePaid, Raw: json.RawMessage(`{"id": "in_x", "customer": "cus_x"}`)},
		{ID: "e4", Type: payments.EventCheckoutCompleted, Raw: json.RawMessage(`{"id": "cs_x"}`)},
		{ID: "e5", Type: "some.future.event", Raw: json.RawMessage(`{}`)},
	}
	for _, event := range events {
		assert.NoError(t, svc.HandleEvent(event), event.ID)
	}
}

func TestMapStripeStatus(t *testing.T) {
	tests := map[string]string{
		"active":             models.StatusActive,
		"canceled":           models.StatusCanceled,
		"incomplete":         models.StatusIncomplete,
		"incomplete_expired": models.StatusIncompleteExpired,
		"past_due":           models.StatusPastDue,
		"trialing":           models.StatusTrialing,
		"unpaid":             models.StatusUnpaid,
		"paused":             models.StatusCanceled,
		"brand_new_status":   models.StatusIncomplete,
	}
	for external, want := range tests {
		assert.Equal(t, want, mapStripeStatus(external), external)
	}
}
