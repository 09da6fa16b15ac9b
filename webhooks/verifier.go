package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/goliatone/go-storesync/core"
)

const HeaderSignature = "X-WC-Webhook-Signature"

// ComputeSignature returns base64(HMAC-SHA256(secret, body)).
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignatureVerifier checks the platform HMAC signature. It holds no state
// between calls and never caches a verdict.
type SignatureVerifier struct {
	Logger core.Logger
	// LogPayload writes the raw body in debug output instead of a masked
	// summary.
	LogPayload bool
}

// Verify reports whether signatureHeader is the base64 HMAC-SHA256 of rawBody
// keyed by secret. A missing header, malformed base64 or mismatch all yield
// false.
func (v SignatureVerifier) Verify(rawBody []byte, signatureHeader string, secret string) bool {
	ok, reason := v.verify(rawBody, signatureHeader, secret)
	v.logComparison(rawBody, signatureHeader, ok, reason)
	return ok
}

func (v SignatureVerifier) verify(rawBody []byte, signatureHeader string, secret string) (bool, string) {
	if strings.TrimSpace(signatureHeader) == "" {
		return false, "missing_signature"
	}
	if secret == "" {
		return false, "missing_secret"
	}
	if _, err := base64.StdEncoding.Strict().DecodeString(signatureHeader); err != nil {
		return false, "malformed_signature"
	}
	expected := ComputeSignature(rawBody, secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signatureHeader)) != 1 {
		return false, "mismatch"
	}
	return true, "match"
}

func (v SignatureVerifier) logComparison(rawBody []byte, signatureHeader string, ok bool, reason string) {
	if v.Logger == nil {
		return
	}
	payload := core.MaskPayload(rawBody)
	if v.LogPayload {
		payload = string(rawBody)
	}
	v.Logger.Debug("webhook signature comparison",
		"verified", ok,
		"reason", reason,
		"signature", signatureHeader,
		"payload", payload,
	)
}
