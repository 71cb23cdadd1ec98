package captcha_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidehq/aide/pkg/captcha"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestVerify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("passes a valid token through", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
			assert.Equal(t, "tok", r.PostForm.Get("response"))
			assert.Equal(t, "203.0.113.9", r.PostForm.Get("remoteip"))
			w.Write([]byte(`{"success":true,"score":0.9}`))
		})

		v := captcha.NewVerifier(captcha.Config{VerifyURL: srv.URL, Secret: "s3cret"})
		res, err := v.Verify(ctx, "tok", "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.InDelta(t, 0.9, res.Score, 0.001)
	})

	t.Run("rejected token", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		})

		v := captcha.NewVerifier(captcha.Config{VerifyURL: srv.URL, Secret: "s3cret"})
		res, err := v.Verify(ctx, "tok", "")
		assert.ErrorIs(t, err, captcha.ErrVerifyFailed)
		assert.False(t, res.Success)
	})

	t.Run("empty token short-circuits", func(t *testing.T) {
		t.Parallel()

		v := captcha.NewVerifier(captcha.Config{VerifyURL: "http://unused", Secret: "s3cret"})
		_, err := v.Verify(ctx, "   ", "")
		assert.ErrorIs(t, err, captcha.ErrEmptyToken)
	})

	t.Run("provider outage is an error, not a pass", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		v := captcha.NewVerifier(captcha.Config{VerifyURL: srv.URL, Secret: "s3cret"})
		res, err := v.Verify(ctx, "tok", "")
		assert.ErrorIs(t, err, captcha.ErrProviderFailure)
		assert.False(t, res.Success)
	})
}
