package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/aidehq/aide/pkg/authn"
)

// Session is a cached verification result. It carries no credential
// material, only the principal the provider vouched for and when.
type Session struct {
	Principal  authn.Principal `json:"principal"`
	VerifiedAt time.Time       `json:"verified_at"`
}

// Key derives the cache key for a bearer credential. The raw token never
// reaches the store.
func Key(credential string) string {
	credential = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
