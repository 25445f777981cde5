package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
)

func newTestVerifier(t *testing.T) Verifier {
	t.Helper()

	verifier, err := NewHMACVerifier(config.PaymentConfig{HashSecret: "test-secret"})
	require.NoError(t, err)
	return verifier
}

func TestVerifyRoundTrip(t *testing.T) {
	verifier := newTestVerifier(t)
	params := map[string]string{
		"order_id":      "b2a7f6c1",
		"amount":        "120000",
		"response_code": "00",
	}

	signature := verifier.Sign(params)
	assert.True(t, verifier.Verify(params, signature))
}

func TestVerifyRejectsTampering(t *testing.T) {
	verifier := newTestVerifier(t)
	params := map[string]string{
		"order_id": "b2a7f6c1",
		"amount":   "120000",
	}
	signature := verifier.Sign(params)

	params["amount"] = "1"
	assert.False(t, verifier.Verify(params, signature))
}

func TestVerifyRejectsEmptySignature(t *testing.T) {
	verifier := newTestVerifier(t)
	assert.False(t, verifier.Verify(map[string]string{"order_id": "x"}, ""))
}

func TestSignIsOrderIndependent(t *testing.T) {
	verifier := newTestVerifier(t)
	a := verifier.Sign(map[string]string{"b": "2", "a": "1", "c": "3"})
	b := verifier.Sign(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, a, b)
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	_, err := NewHMACVerifier(config.PaymentConfig{})
	assert.Error(t, err)
}
