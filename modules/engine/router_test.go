package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/modules/engine"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/audit"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/captcha"
	"github.com/aidehq/aide/pkg/promo"
	"github.com/aidehq/aide/pkg/quota"
	"github.com/aidehq/aide/pkg/session"
	"github.com/aidehq/aide/pkg/subscription"
)

// tokenAuthenticator maps static bearer tokens to principals.
type tokenAuthenticator map[string]*authn.Principal

func (a tokenAuthenticator) Authenticate(ctx context.Context, credential string) (*authn.Principal, error) {
	credential = strings.TrimPrefix(strings.TrimSpace(credential), "Bearer ")
	if p, ok := a[credential]; ok {
		return p, nil
	}
	return nil, authn.ErrUnauthenticated
}

type staticDirectory map[string]*authn.Principal

func (d staticDirectory) LookupByEmail(ctx context.Context, email string) (*authn.Principal, error) {
	if p, ok := d[email]; ok {
		return p, nil
	}
	return nil, admin.ErrTargetNotFound
}

type stubBilling struct{}

func (stubBilling) CreateCheckoutLink(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	return &subscription.CheckoutLink{URL: "https://pay.example.com/checkout"}, nil
}

func (stubBilling) GetCustomerPortalLink(ctx context.Context, sub *subscription.Subscription) (*subscription.PortalLink, error) {
	return &subscription.PortalLink{URL: "https://pay.example.com/portal"}, nil
}

func (stubBilling) ParseWebhook(ctx context.Context, payload []byte, signature string) (*subscription.WebhookEvent, error) {
	var ev subscription.WebhookEvent
	if signature != "valid" {
		return nil, subscription.ErrWebhookVerificationFailed
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

type stubCaptcha struct{}

func (stubCaptcha) Verify(ctx context.Context, token, remoteIP string) (captcha.Result, error) {
	if token != "human" {
		return captcha.Result{}, captcha.ErrVerifyFailed
	}
	return captcha.Result{Success: true, Score: 0.9}, nil
}

type apiFixture struct {
	srv        *httptest.Server
	user       *authn.Principal
	superAdmin *authn.Principal
	subs       subscription.Manager
	subStore   *subscription.MemoryStore
}

func newAPI(t *testing.T) *apiFixture {
	return newAPIWithAdminStore(t, nil)
}

func newAPIWithAdminStore(t *testing.T, adminStore admin.Store) *apiFixture {
	t.Helper()

	f := &apiFixture{
		user:       &authn.Principal{ID: uuid.New(), Email: "user@example.com", EmailVerified: true},
		superAdmin: &authn.Principal{ID: uuid.New(), Email: "root@example.com", EmailVerified: true},
	}

	tokens := tokenAuthenticator{
		"user-token":  f.user,
		"admin-token": f.superAdmin,
	}

	auditLog := audit.NewLogger(audit.NewMemoryStorage())

	if adminStore == nil {
		store := admin.NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), &admin.Record{
			PrincipalID: f.superAdmin.ID,
			Email:       f.superAdmin.Email,
			Role:        admin.RoleSuperAdmin,
		}))
		adminStore = store
	}

	f.subStore = subscription.NewMemoryStore()
	f.subs = subscription.NewManager(f.subStore, stubBilling{}, auditLog)

	router := engine.Router(engine.RouterOptions{
		Sessions:      session.NewResolver(session.NewMemoryStore(), authn.NewAuthenticator(tokenVerifier(tokens))),
		Admins:        admin.NewResolver(adminStore, staticDirectory{f.user.Email: f.user}, auditLog),
		Subscriptions: f.subs,
		Quotas:        quota.NewTracker(f.subs, quota.NewMemoryStore()),
		Promos:        promo.NewApplier(promo.NewMemoryStore(), f.subs, auditLog),
		Captcha:       stubCaptcha{},
	})

	f.srv = httptest.NewServer(router)
	t.Cleanup(f.srv.Close)
	return f
}

// tokenVerifier adapts the token map to the authn.TokenVerifier interface.
func tokenVerifier(a tokenAuthenticator) authn.TokenVerifier {
	return verifierFunc(func(ctx context.Context, token string) (*authn.Principal, error) {
		return a.Authenticate(ctx, token)
	})
}

type verifierFunc func(ctx context.Context, token string) (*authn.Principal, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*authn.Principal, error) {
	return f(ctx, token)
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func TestAuthGate(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/me/entitlement", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/me/entitlement", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/me/entitlement", "user-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminStatus(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/me/admin", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[engine.AdminStatusResponse](t, resp)
	assert.False(t, status.IsAdmin)

	resp = f.do(t, http.MethodGet, "/me/admin", "admin-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status = decode[engine.AdminStatusResponse](t, resp)
	assert.True(t, status.IsAdmin)
	assert.Equal(t, admin.RoleSuperAdmin, status.Role)
}

func TestAdminGate(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	// Regular users are rejected with forbidden, not not-found.
	resp := f.do(t, http.MethodGet, "/admin/admins/", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/admin/admins/", "admin-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// unreachableAdminStore simulates a database outage on every lookup.
type unreachableAdminStore struct {
	admin.Store
}

func (unreachableAdminStore) Get(ctx context.Context, principalID uuid.UUID) (*admin.Record, error) {
	return nil, errors.New("connection refused")
}

func TestAdminResolutionOutage(t *testing.T) {
	t.Parallel()
	f := newAPIWithAdminStore(t, unreachableAdminStore{})

	// An outage is retryable, never a definitive "not an admin".
	resp := f.do(t, http.MethodGet, "/me/admin", "user-token", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Nor does it read as an access denial on gated routes.
	resp = f.do(t, http.MethodGet, "/admin/admins/", "admin-token", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/admin/login", "admin-token",
		engine.LoginRequest{CaptchaToken: "human"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestEntitlementAndQuota(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/me/entitlement", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ent := decode[engine.EntitlementResponse](t, resp)
	assert.Equal(t, subscription.TierFree, ent.Tier)
	assert.Contains(t, ent.Usage, quota.ResourceChatMessages)

	// Free tier has no export allowance at all.
	resp = f.do(t, http.MethodPost, "/me/usage", "user-token",
		engine.ConsumeRequest{Kind: quota.ResourceExports, Amount: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/me/usage", "user-token",
		engine.ConsumeRequest{Kind: quota.ResourceChatMessages, Amount: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	consumed := decode[engine.ConsumeResponse](t, resp)
	assert.EqualValues(t, 19, consumed.Remaining)

	// Draining the rest of the daily allowance trips the 429.
	resp = f.do(t, http.MethodPost, "/me/usage", "user-token",
		engine.ConsumeRequest{Kind: quota.ResourceChatMessages, Amount: 19})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/me/usage", "user-token",
		engine.ConsumeRequest{Kind: quota.ResourceChatMessages, Amount: 1})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSubscriptionGrantFlow(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	grantPath := "/admin/subscriptions/" + f.user.ID.String() + "/grant"

	// Regular users cannot reach the back-office route.
	resp := f.do(t, http.MethodPost, grantPath, "user-token",
		engine.GrantSubscriptionRequest{Tier: subscription.TierPremium, Months: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, grantPath, "admin-token",
		engine.GrantSubscriptionRequest{Tier: subscription.TierPremium, Months: 1, Reason: "vip"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/me/entitlement", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ent := decode[engine.EntitlementResponse](t, resp)
	assert.Equal(t, subscription.TierPremium, ent.Tier)

	// Deferred cancel keeps the tier for the rest of the period.
	resp = f.do(t, http.MethodPost, "/me/subscription/cancel", "user-token",
		engine.CancelRequest{Immediate: false})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/me/entitlement", "user-token", nil)
	ent = decode[engine.EntitlementResponse](t, resp)
	assert.Equal(t, subscription.TierPremium, ent.Tier)
}

func TestPromoRedemption(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	// Seed a code through the admin CRUD surface.
	resp := f.do(t, http.MethodPost, "/admin/promo-codes/", "admin-token", engine.PromoCodeRequest{
		Code:          "LAUNCH",
		DiscountType:  promo.DiscountPercentage,
		DiscountValue: 100,
		GrantMonths:   1,
		IsActive:      true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/me/promo", "user-token",
		engine.RedeemRequest{Code: "launch", Tier: subscription.TierPlus})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	redeemed := decode[engine.RedeemResponse](t, resp)
	assert.Equal(t, subscription.TierPlus, redeemed.Tier)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), redeemed.ActiveTo, time.Minute)

	// Unknown codes surface as unprocessable, with a stable reason key.
	resp = f.do(t, http.MethodPost, "/me/promo", "user-token",
		engine.RedeemRequest{Code: "NOPE", Tier: subscription.TierPlus})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMalformedRequestBody(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/me/promo", strings.NewReader(`{"code":`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Wrong content type is refused before any handler runs.
	req, err = http.NewRequest(http.MethodPost, f.srv.URL+"/me/promo", strings.NewReader("code=LAUNCH"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestBillingWebhook(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	ev := subscription.WebhookEvent{
		Type:           subscription.EventSubscriptionCreated,
		SubscriptionID: "sub_1",
		PrincipalID:    f.user.ID.String(),
		Status:         subscription.StatusActive,
		Tier:           subscription.TierBasic,
		PeriodStart:    time.Now().UTC(),
		PeriodEnd:      time.Now().UTC().Add(31 * 24 * time.Hour),
		Sequence:       10,
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/webhooks/billing", strings.NewReader(string(raw)))
	require.NoError(t, err)
	req.Header.Set("Paddle-Signature", "valid")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Bad signature is rejected.
	req, err = http.NewRequest(http.MethodPost, f.srv.URL+"/webhooks/billing", strings.NewReader(string(raw)))
	require.NoError(t, err)
	req.Header.Set("Paddle-Signature", "forged")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	tier, err := f.subs.EffectiveTier(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.TierBasic, tier)
}

func TestAdminLogin(t *testing.T) {
	t.Parallel()
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/admin/login", "admin-token",
		engine.LoginRequest{CaptchaToken: "bot"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/admin/login", "admin-token",
		engine.LoginRequest{CaptchaToken: "human"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[engine.LoginResponse](t, resp)
	assert.Equal(t, admin.RoleSuperAdmin, login.Role)
}
