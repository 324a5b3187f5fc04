package payments

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway implements Gateway on top of the Stripe SDK.
type StripeGateway struct {
	webhookSecret string
	baseURL       string
}

// NewStripeGateway sets the process-wide API key and returns the gateway.
func NewStripeGateway(secretKey, webhookSecret, baseURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
	}
}

func (g *StripeGateway) GetOrCreateCustomer(email, userID, name string) (*Customer, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		existing := iter.Customer()
		return &Customer{ID: existing.ID, Email: existing.Email}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.AddMetadata("userId", userID)

	created, err := customer.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &Customer{ID: created.ID, Email: created.Email}, nil
}

func (g *StripeGateway) CreateCheckoutSession(userID, userEmail, priceID string, trialDays int) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(userEmail),
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(g.baseURL + "/subscription/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(g.baseURL + "/subscription/cancel"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": userID},
		},
	}
	params.AddMetadata("userId", userID)
	if trialDays > 0 {
		params.SubscriptionData.TrialPeriodDays = stripe.Int64(int64(trialDays))
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) CreateBillingPortalSession(customerID string) (string, error) {
	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.baseURL + "/subscription"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return sess.URL, nil
}

func (g *StripeGateway) UpdateSubscription(subscriptionID, newPriceID string) (*Subscription, error) {
	current, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subscription: %w", err)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no line items", subscriptionID)
	}

	updated, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(newPriceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	return fromStripeSubscription(updated), nil
}

func (g *StripeGateway) CancelSubscription(subscriptionID string, immediate bool) (*Subscription, error) {
	if immediate {
		canceled, err := subscription.Cancel(subscriptionID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel subscription: %w", err)
		}
		return fromStripeSubscription(canceled), nil
	}

	updated, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return fromStripeSubscription(updated), nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, ErrInvalidSignature
	}
	return &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}, nil
}

// fromStripeSubscription flattens the SDK object; billing periods live
// on the line item in current API versions.
func fromStripeSubscription(s *stripe.Subscription) *Subscription {
	sub := &Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		CanceledAt:        s.CanceledAt,
		TrialStart:        s.TrialStart,
		TrialEnd:          s.TrialEnd,
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		sub.CurrentPeriodStart = item.CurrentPeriodStart
		sub.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			sub.PriceID = item.Price.ID
		}
	}
	return sub
}
