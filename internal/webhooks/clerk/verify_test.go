package clerkwebhook

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/localspot/localspot-backend/pkg/config"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("test-signing-secret"))
	verifier, err := NewVerifier(config.ClerkConfig{WebhookSecret: secret})
	if err != nil {
		t.Fatalf("setup verifier: %v", err)
	}
	return verifier
}

func nowTimestamp() string {
	return fmt.Sprintf("%d", time.Now().Unix())
}

func TestVerifier_AcceptsValidSignature(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	ts := nowTimestamp()
	sig := verifier.Sign("msg_1", ts, payload)

	if err := verifier.Verify("msg_1", ts, sig, payload); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifier_MissingHeadersBeforeCrypto(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{}`)
	ts := nowTimestamp()
	sig := verifier.Sign("msg_1", ts, payload)

	cases := []struct {
		name        string
		id, ts, sig string
	}{
		{"no id", "", ts, sig},
		{"no timestamp", "msg_1", "", sig},
		{"no signature", "msg_1", ts, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := verifier.Verify(tc.id, tc.ts, tc.sig, payload)
			if !errors.Is(err, ErrMissingHeaders) {
				t.Fatalf("expected ErrMissingHeaders, got %v", err)
			}
		})
	}
}

func TestVerifier_RejectsTamperedBody(t *testing.T) {
	verifier := newTestVerifier(t)
	ts := nowTimestamp()
	sig := verifier.Sign("msg_1", ts, []byte(`{"amount":10}`))

	err := verifier.Verify("msg_1", ts, sig, []byte(`{"amount":9999}`))
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifier_RejectsWrongMessageID(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{}`)
	ts := nowTimestamp()
	sig := verifier.Sign("msg_1", ts, payload)

	err := verifier.Verify("msg_2", ts, sig, payload)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifier_AcceptsAnyCandidateAfterRotation(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{}`)
	ts := nowTimestamp()
	stale := "v1," + base64.StdEncoding.EncodeToString([]byte("signed-with-old-secret!!"))
	valid := verifier.Sign("msg_1", ts, payload)

	if err := verifier.Verify("msg_1", ts, stale+" "+valid, payload); err != nil {
		t.Fatalf("expected rotated header to pass, got %v", err)
	}
}

func TestVerifier_IgnoresUnknownVersions(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{}`)
	ts := nowTimestamp()
	mac := verifier.Sign("msg_1", ts, payload)
	wrongVersion := "v2," + mac[len("v1,"):]

	err := verifier.Verify("msg_1", ts, wrongVersion, payload)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifier_RejectsStaleTimestamp(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{}`)
	stale := fmt.Sprintf("%d", time.Now().Add(-10*time.Minute).Unix())
	sig := verifier.Sign("msg_1", stale, payload)

	err := verifier.Verify("msg_1", stale, sig, payload)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifier_RejectsFutureTimestamp(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{}`)
	future := fmt.Sprintf("%d", time.Now().Add(10*time.Minute).Unix())
	sig := verifier.Sign("msg_1", future, payload)

	err := verifier.Verify("msg_1", future, sig, payload)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifier_RejectsNonNumericTimestamp(t *testing.T) {
	verifier := newTestVerifier(t)

	err := verifier.Verify("msg_1", "yesterday", "v1,AAAA", []byte(`{}`))
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifier_VerifyRequestReadsHeaders(t *testing.T) {
	verifier := newTestVerifier(t)
	payload := []byte(`{"type":"user.deleted"}`)
	ts := nowTimestamp()

	header := http.Header{}
	header.Set(HeaderID, "msg_req")
	header.Set(HeaderTimestamp, ts)
	header.Set(HeaderSignature, verifier.Sign("msg_req", ts, payload))

	if err := verifier.VerifyRequest(header, payload); err != nil {
		t.Fatalf("expected request to verify, got %v", err)
	}
}

func TestNewVerifier_RejectsBadSecret(t *testing.T) {
	if _, err := NewVerifier(config.ClerkConfig{WebhookSecret: ""}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewVerifier(config.ClerkConfig{WebhookSecret: "whsec_%%%not-base64%%%"}); err == nil {
		t.Fatalf("expected error for undecodable secret")
	}
}
