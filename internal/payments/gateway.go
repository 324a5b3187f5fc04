package payments

import "errors"

// ErrInvalidSignature is returned when a webhook payload fails
// verification against the configured signing secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

type Customer struct {
	ID    string
	Email string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Subscription is the gateway-neutral view of an external subscription.
// Timestamps are unix seconds; zero means unset.
type Subscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	CancelAtPeriodEnd  bool
	CanceledAt         int64
	TrialStart         int64
	TrialEnd           int64
}

// Gateway wraps the payment processor SDK. The webhook reconciler and
// billing service depend on this interface, not on the SDK directly.
type Gateway interface {
	// GetOrCreateCustomer reuses the first customer matching email,
	// otherwise creates one with the user id in metadata.
	GetOrCreateCustomer(email, userID, name string) (*Customer, error)

	// CreateCheckoutSession opens a subscription-mode checkout with the
	// user id embedded as client reference and subscription metadata.
	CreateCheckoutSession(userID, userEmail, priceID string, trialDays int) (*CheckoutSession, error)

	CreateBillingPortalSession(customerID string) (string, error)

	// UpdateSubscription replaces the single line item's price; the
	// processor handles proration.
	UpdateSubscription(subscriptionID, newPriceID string) (*Subscription, error)

	// CancelSubscription hard-cancels when immediate, otherwise flags
	// cancel-at-period-end.
	CancelSubscription(subscriptionID string, immediate bool) (*Subscription, error)

	// VerifyWebhook checks the signature header against the webhook
	// secret and returns the decoded event.
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}
