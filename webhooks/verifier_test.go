package webhooks

import (
	"context"
	"strings"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

const testSecret = "wc-secret"

func TestVerifyAcceptsMatchingSignature(t *testing.T) {
	body := []byte(`{"id":1001,"status":"processing"}`)
	signature := ComputeSignature(body, testSecret)

	if !(SignatureVerifier{}).Verify(body, signature, testSecret) {
		t.Fatalf("expected matching signature to verify")
	}
	if (SignatureVerifier{}).Verify(body, signature, "other-secret") {
		t.Fatalf("expected a different secret to fail")
	}
}

func TestVerifyRejectsAnySingleBitMutationOfBody(t *testing.T) {
	body := []byte(`{"id":1001,"total":"12.50"}`)
	signature := ComputeSignature(body, testSecret)
	verifier := SignatureVerifier{}

	for i := range body {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 1 << bit
			if verifier.Verify(mutated, signature, testSecret) {
				t.Fatalf("expected body mutation at byte %d bit %d to fail", i, bit)
			}
		}
	}
}

func TestVerifyRejectsAnySingleBitMutationOfSignature(t *testing.T) {
	body := []byte(`{"id":1001}`)
	signature := []byte(ComputeSignature(body, testSecret))
	verifier := SignatureVerifier{}

	for i := range signature {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), signature...)
			mutated[i] ^= 1 << bit
			if verifier.Verify(body, string(mutated), testSecret) {
				t.Fatalf("expected signature mutation at byte %d bit %d to fail", i, bit)
			}
		}
	}
}

func TestVerifyReturnsFalseForMissingOrMalformedHeader(t *testing.T) {
	body := []byte(`{"id":1}`)
	verifier := SignatureVerifier{}
	for _, header := range []string{"", "   ", "not base64!!", "c2hvcnQ"} {
		if verifier.Verify(body, header, testSecret) {
			t.Fatalf("expected header %q to fail", header)
		}
	}
}

func TestVerifyUsesRawBytesNotReserializedJSON(t *testing.T) {
	raw := []byte("{\n  \"id\": 7\n}")
	compact := []byte(`{"id":7}`)
	signature := ComputeSignature(raw, testSecret)
	if !(SignatureVerifier{}).Verify(raw, signature, testSecret) {
		t.Fatalf("expected raw bytes to verify")
	}
	if (SignatureVerifier{}).Verify(compact, signature, testSecret) {
		t.Fatalf("expected reserialized body to fail")
	}
}

func TestVerifyDebugLogMasksPayloadButNotSignature(t *testing.T) {
	logger := &debugCapture{}
	body := []byte(`{"email":"buyer@example.com"}`)
	signature := ComputeSignature(body, testSecret)

	SignatureVerifier{Logger: logger}.Verify(body, signature, testSecret)
	if len(logger.lines) != 1 {
		t.Fatalf("expected one debug line, got %d", len(logger.lines))
	}
	line := logger.lines[0]
	if strings.Contains(line, "buyer@example.com") {
		t.Fatalf("payload must be masked: %s", line)
	}
	if !strings.Contains(line, signature) {
		t.Fatalf("signature must stay visible: %s", line)
	}
	if strings.Contains(line, testSecret) {
		t.Fatalf("secret must never be logged: %s", line)
	}

	logger.lines = nil
	SignatureVerifier{Logger: logger, LogPayload: true}.Verify(body, signature, testSecret)
	if !strings.Contains(logger.lines[0], "buyer@example.com") {
		t.Fatalf("expected raw payload when payload logging is enabled")
	}
}

var _ glog.Logger = (*debugCapture)(nil)

type debugCapture struct {
	lines []string
}

func (l *debugCapture) Trace(string, ...any) {}
func (l *debugCapture) Info(string, ...any)  {}
func (l *debugCapture) Warn(string, ...any)  {}
func (l *debugCapture) Error(string, ...any) {}
func (l *debugCapture) Fatal(string, ...any) {}

func (l *debugCapture) Debug(msg string, args ...any) {
	parts := []string{msg}
	for _, arg := range args {
		if value, ok := arg.(string); ok {
			parts = append(parts, value)
		}
	}
	l.lines = append(l.lines, strings.Join(parts, " "))
}

func (l *debugCapture) WithContext(context.Context) glog.Logger {
	return l
}
