package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/authn"
)

// ErrDirectoryUnavailable is returned when the identity provider's admin
// API cannot be reached.
var ErrDirectoryUnavailable = errors.New("admin.errors.directory_unavailable")

// DirectoryConfig holds the identity provider's admin API connection.
type DirectoryConfig struct {
	BaseURL string        `env:"IDP_ADMIN_URL,required"`
	APIKey  string        `env:"IDP_ADMIN_API_KEY,required"`
	Timeout time.Duration `env:"IDP_ADMIN_TIMEOUT" envDefault:"5s"`
}

// HTTPDirectory looks up principals through the identity provider's admin
// API. It is read-only; principals are created and owned by the provider.
type HTTPDirectory struct {
	cfg    DirectoryConfig
	client *http.Client
}

// NewHTTPDirectory creates a directory client for the identity provider.
func NewHTTPDirectory(cfg DirectoryConfig) *HTTPDirectory {
	return &HTTPDirectory{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type directoryUser struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
}

func (d *HTTPDirectory) LookupByEmail(ctx context.Context, email string) (*authn.Principal, error) {
	endpoint := fmt.Sprintf("%s/users?email=%s", d.cfg.BaseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Join(ErrDirectoryUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrTargetNotFound
	default:
		return nil, errors.Join(ErrDirectoryUnavailable, errors.New(resp.Status))
	}

	var users []directoryUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, errors.Join(ErrDirectoryUnavailable, err)
	}
	if len(users) == 0 {
		return nil, ErrTargetNotFound
	}

	return &authn.Principal{
		ID:            users[0].ID,
		Email:         users[0].Email,
		EmailVerified: users[0].EmailVerified,
	}, nil
}
