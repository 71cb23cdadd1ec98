package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrEmptyToken      = errors.New("captcha.errors.empty_token")
	ErrVerifyFailed    = errors.New("captcha.errors.verification_failed")
	ErrProviderFailure = errors.New("captcha.errors.provider_failure")
)

// Result is the provider's verdict on a challenge token.
type Result struct {
	Success bool
	// Score is the provider's risk estimate in [0,1] when it supplies one,
	// higher meaning more likely human. Zero when the provider has no
	// scoring.
	Score float64
}

// Verifier checks a captcha challenge token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (Result, error)
}

// Config holds the provider endpoint and credentials.
type Config struct {
	VerifyURL string        `env:"CAPTCHA_VERIFY_URL" envDefault:"https://hcaptcha.com/siteverify"`
	Secret    string        `env:"CAPTCHA_SECRET,required"`
	Timeout   time.Duration `env:"CAPTCHA_TIMEOUT" envDefault:"5s"`
}

type httpVerifier struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// Option configures the HTTP verifier.
type Option func(*httpVerifier)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(v *httpVerifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithLogger sets a custom logger for the verifier.
func WithLogger(log *slog.Logger) Option {
	return func(v *httpVerifier) {
		if log != nil {
			v.log = log
		}
	}
}

// NewVerifier creates a Verifier posting to the provider's verify endpoint.
func NewVerifier(cfg Config, opts ...Option) Verifier {
	v := &httpVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type providerResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *httpVerifier) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	if strings.TrimSpace(token) == "" {
		return Result{}, ErrEmptyToken
	}

	form := url.Values{
		"secret":   {v.cfg.Secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, errors.Join(ErrProviderFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, errors.Join(ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, errors.Join(ErrProviderFailure, errors.New(resp.Status))
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, errors.Join(ErrProviderFailure, err)
	}

	if !body.Success {
		v.log.DebugContext(ctx, "captcha rejected", "codes", body.ErrorCodes)
		return Result{Score: body.Score}, ErrVerifyFailed
	}

	return Result{Success: true, Score: body.Score}, nil
}
