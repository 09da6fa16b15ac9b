package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const RedactedValue = "[REDACTED]"

// MaskPayload summarizes a request body without exposing its contents.
func MaskPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("len=%d sha256=%s", len(body), hex.EncodeToString(sum[:])[:12])
}

// RedactSensitiveMap masks credential-like keys. Signature headers are kept
// readable so verification failures can be diagnosed.
func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || strings.Contains(key, "signature") {
		return false
	}
	for _, token := range []string{"password", "secret", "token", "authorization", "api_key", "cookie"} {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}
