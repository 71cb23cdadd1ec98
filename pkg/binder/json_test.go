package binder_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/pkg/binder"
)

type redeemRequest struct {
	Code string `json:"code"`
	Tier string `json:"tier"`
}

type consumeRequest struct {
	Kind   string `json:"kind"`
	Amount int64  `json:"amount"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	bind := binder.JSON()

	t.Run("binds valid body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(`{"code":"LAUNCH","tier":"plus"}`))
		r.Header.Set("Content-Type", "application/json")

		var req redeemRequest
		require.NoError(t, bind(r, &req))
		assert.Equal(t, "LAUNCH", req.Code)
		assert.Equal(t, "plus", req.Tier)
	})

	t.Run("accepts charset parameter", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/usage", strings.NewReader(`{"kind":"chat_messages","amount":3}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req consumeRequest
		require.NoError(t, bind(r, &req))
		assert.Equal(t, int64(3), req.Amount)
	})

	t.Run("missing content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(`{"code":"LAUNCH"}`))

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrMissingContentType)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader("code=LAUNCH"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(`{"code":`))
		r.Header.Set("Content-Type", "application/json")

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/json")

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
		assert.Contains(t, err.Error(), "empty body")
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(`{"code":"LAUNCH","admin":true}`))
		r.Header.Set("Content-Type", "application/json")

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(`{"code":"LAUNCH"}{"code":"AGAIN"}`))
		r.Header.Set("Content-Type", "application/json")

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		t.Parallel()

		huge := `{"code":"` + strings.Repeat("A", binder.DefaultMaxJSONSize) + `"}`
		r := httptest.NewRequest("POST", "/me/promo", strings.NewReader(huge))
		r.Header.Set("Content-Type", "application/json")

		var req redeemRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/me/usage", strings.NewReader(`{"kind":"exports","amount":"three"}`))
		r.Header.Set("Content-Type", "application/json")

		var req consumeRequest
		err := bind(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})
}
