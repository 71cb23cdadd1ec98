package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider. Each
// paid tier maps to a Paddle price ID; webhook items are resolved back to
// tiers through the same mapping.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceBasic    string `env:"PADDLE_PRICE_BASIC,required"`
	PricePlus     string `env:"PADDLE_PRICE_PLUS,required"`
	PricePremium  string `env:"PADDLE_PRICE_PREMIUM,required"`
}

// PaddleProvider implements BillingProvider for Paddle.
type PaddleProvider struct {
	client      *paddle.SDK
	verifier    *paddle.WebhookVerifier
	priceByTier map[Tier]string
	tierByPrice map[string]Tier
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	priceByTier := map[Tier]string{
		TierBasic:   config.PriceBasic,
		TierPlus:    config.PricePlus,
		TierPremium: config.PricePremium,
	}
	tierByPrice := make(map[string]Tier, len(priceByTier))
	for tier, priceID := range priceByTier {
		if priceID == "" {
			return nil, fmt.Errorf("paddle price ID for tier %s is required", tier)
		}
		tierByPrice[priceID] = tier
	}

	return &PaddleProvider{
		client:      client,
		verifier:    paddle.NewWebhookVerifier(config.WebhookSecret),
		priceByTier: priceByTier,
		tierByPrice: tierByPrice,
	}, nil
}

// CreateCheckoutLink creates a hosted checkout session in Paddle.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	priceID, ok := p.priceByTier[req.Tier]
	if !ok {
		return nil, fmt.Errorf("%w: no paddle price for tier %q", ErrInvalidTier, req.Tier)
	}
	if req.PrincipalID == "" {
		return nil, errors.New("principal ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	// principal_id in custom data is how webhook events find their way back
	// to our subscription record.
	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"principal_id": req.PrincipalID,
		},
	}
	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// GetCustomerPortalLink returns a link to Paddle's customer portal.
func (p *PaddleProvider) GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error) {
	if sub == nil || sub.ProviderSubID == "" {
		return nil, ErrNoProviderSubscription
	}

	portalSession, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx,
		&paddle.CreateCustomerPortalSessionRequest{
			CustomerID:      sub.PrincipalID.String(),
			SubscriptionIDs: []string{sub.ProviderSubID},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}

	portalLink := &PortalLink{
		URL:       portalSession.URLs.General.Overview,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	for _, subURL := range portalSession.URLs.Subscriptions {
		if subURL.ID == sub.ProviderSubID {
			portalLink.CancelURL = subURL.CancelSubscription
			portalLink.UpdatePaymentURL = subURL.UpdateSubscriptionPaymentMethod
			break
		}
	}

	if portalLink.URL == "" {
		return nil, ErrNoPortalURL
	}
	return portalLink, nil
}

// ParseWebhook validates the Paddle signature and normalizes the payload.
// The event's occurred_at timestamp becomes the Sequence: Paddle guarantees
// it is strictly increasing per subscription, so nanosecond precision gives
// us a replay-safe ordering value.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var paddleEvent struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, paddleEvent.OccurredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook occurred_at: %w", err)
	}

	event := &WebhookEvent{
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Sequence:      occurredAt.UnixNano(),
		Raw:           paddleEvent.Data,
	}

	if subID, ok := paddleEvent.Data["id"].(string); ok {
		event.SubscriptionID = subID
	}
	// Transaction events reference the subscription indirectly.
	if subID, ok := paddleEvent.Data["subscription_id"].(string); ok {
		event.SubscriptionID = subID
	}
	if status, ok := paddleEvent.Data["status"].(string); ok {
		event.Status = mapPaddleStatus(status)
	}
	if customData, ok := paddleEvent.Data["custom_data"].(map[string]any); ok {
		if principalID, ok := customData["principal_id"].(string); ok {
			event.PrincipalID = principalID
		}
	}
	if period, ok := paddleEvent.Data["current_billing_period"].(map[string]any); ok {
		if start, ok := period["starts_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, start); err == nil {
				event.PeriodStart = t.UTC()
			}
		}
		if end, ok := period["ends_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, end); err == nil {
				event.PeriodEnd = t.UTC()
			}
		}
	}
	event.Tier = p.tierFromItems(paddleEvent.Data["items"])

	return event, nil
}

// ParseWebhookRequest accepts an http.Request directly for handler use.
func (p *PaddleProvider) ParseWebhookRequest(req *http.Request) (*WebhookEvent, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	return p.ParseWebhook(req.Context(), body, req.Header.Get("Paddle-Signature"))
}

// tierFromItems resolves the purchased tier from the event's line items.
// Subscription items nest the price object, transaction items carry
// price_id directly.
func (p *PaddleProvider) tierFromItems(raw any) Tier {
	items, ok := raw.([]any)
	if !ok {
		return ""
	}
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if priceID, ok := item["price_id"].(string); ok {
			if tier, ok := p.tierByPrice[priceID]; ok {
				return tier
			}
		}
		if price, ok := item["price"].(map[string]any); ok {
			if priceID, ok := price["id"].(string); ok {
				if tier, ok := p.tierByPrice[priceID]; ok {
					return tier
				}
			}
		}
	}
	return ""
}

func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "subscription.created":
		return EventSubscriptionCreated
	case "subscription.updated", "subscription.resumed":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCancelled
	case "transaction.payment_succeeded", "transaction.completed":
		return EventPaymentSucceeded
	case "transaction.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(paddleEvent)
	}
}

func mapPaddleStatus(paddleStatus string) Status {
	switch strings.ToLower(paddleStatus) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCancelled
	default:
		return StatusIncomplete
	}
}
