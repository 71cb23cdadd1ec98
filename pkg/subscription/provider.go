package subscription

import (
	"context"
	"time"
)

// BillingProvider abstracts the payment provider. The provider hosts
// checkout and the customer portal, so no card data ever touches us.
//
// Implementations use the official provider SDK and absorb provider
// quirks internally (customer ID mapping, event naming, status spelling).
type BillingProvider interface {
	// CreateCheckoutLink creates a hosted checkout session.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a temporary link to the customer portal
	// where users update payment methods or cancel.
	GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error)

	// ParseWebhook validates the signature and normalizes the payload.
	// Must reject unsigned or tampered payloads with
	// ErrWebhookVerificationFailed.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	Tier        Tier   // paid tier being purchased; the adapter maps it to a price ID
	PrincipalID string // our principal ID, round-tripped through provider custom data
	Email       string
	SuccessURL  string
	CancelURL   string
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string // provider's session identifier
	ExpiresAt time.Time
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL              string
	CancelURL        string // direct link to cancellation, when the provider exposes one
	UpdatePaymentURL string
	ExpiresAt        time.Time
}
