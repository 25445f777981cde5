package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
)

// Verifier checks a gateway redirect-return for authenticity. The outcome
// is boolean; interpretation of the gateway's response code belongs to the
// caller.
type Verifier interface {
	Verify(params map[string]string, signature string) bool
	Sign(params map[string]string) string
}

type hmacVerifier struct {
	secret []byte
}

// NewHMACVerifier builds a verifier over the configured hash secret.
func NewHMACVerifier(cfg config.PaymentConfig) (Verifier, error) {
	if cfg.HashSecret == "" {
		return nil, fmt.Errorf("payment hash secret required")
	}
	return &hmacVerifier{secret: []byte(cfg.HashSecret)}, nil
}

// Sign produces the HMAC-SHA256 hex digest over the canonical query string:
// keys sorted, values URL-encoded, joined with &. Signature params are not
// part of their own digest and must be stripped by the caller.
func (v *hmacVerifier) Sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var canonical strings.Builder
	for i, key := range keys {
		if i > 0 {
			canonical.WriteByte('&')
		}
		canonical.WriteString(key)
		canonical.WriteByte('=')
		canonical.WriteString(url.QueryEscape(params[key]))
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(canonical.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the signature matches the params in constant time.
func (v *hmacVerifier) Verify(params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	expected := v.Sign(params)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
