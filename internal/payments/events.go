package payments

import "encoding/json"

// Webhook event types handled by the reconciler.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// Event is a verified webhook event. Raw holds the payload object and
// is decoded into one of the typed structs below by the reconciler.
type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

type CheckoutSessionEvent struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type SubscriptionEvent struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         int64             `json:"canceled_at"`
	TrialStart         int64             `json:"trial_start"`
	TrialEnd           int64             `json:"trial_end"`
	Items              subscriptionItems `json:"items"`
	Metadata           map[string]string `json:"metadata"`
}

type subscriptionItems struct {
	Data []subscriptionItem `json:"data"`
}

type subscriptionItem struct {
	ID                 string `json:"id"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Price              struct {
		ID string `json:"id"`
	} `json:"price"`
}

// PriceID returns the price of the first line item.
func (e *SubscriptionEvent) PriceID() string {
	if len(e.Items.Data) == 0 {
		return ""
	}
	return e.Items.Data[0].Price.ID
}

// PeriodStart prefers the top-level field and falls back to the first
// line item (newer API versions carry the period there).
func (e *SubscriptionEvent) PeriodStart() int64 {
	if e.CurrentPeriodStart != 0 {
		return e.CurrentPeriodStart
	}
	if len(e.Items.Data) > 0 {
		return e.Items.Data[0].CurrentPeriodStart
	}
	return 0
}

func (e *SubscriptionEvent) PeriodEnd() int64 {
	if e.CurrentPeriodEnd != 0 {
		return e.CurrentPeriodEnd
	}
	if len(e.Items.Data) > 0 {
		return e.Items.Data[0].CurrentPeriodEnd
	}
	return 0
}

type InvoiceEvent struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	AmountPaid        int64  `json:"amount_paid"`
	AmountDue         int64  `json:"amount_due"`
	Currency          string `json:"currency"`
	HostedInvoiceURL  string `json:"hosted_invoice_url"`
	StatusTransitions struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
}
