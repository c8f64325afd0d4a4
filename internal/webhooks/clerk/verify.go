package clerkwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/localspot/localspot-backend/pkg/config"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	secretPrefix     = "whsec_"
	signatureVersion = "v1"
	defaultTolerance = 5 * time.Minute
)

var (
	// ErrMissingHeaders means the request lacks one of the three signing
	// headers and was never cryptographically checked.
	ErrMissingHeaders = errors.New("missing webhook signature headers")

	// ErrVerificationFailed covers every other rejection. The cause is kept
	// out of the error so responses stay uniform.
	ErrVerificationFailed = errors.New("webhook verification failed")
)

// Verifier authenticates webhook deliveries signed with the svix scheme:
// an HMAC-SHA256 over "{id}.{timestamp}.{body}" keyed by the shared secret.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
}

// NewVerifier decodes the configured signing secret. The secret is the
// base64 portion after the "whsec_" prefix.
func NewVerifier(cfg config.ClerkConfig) (*Verifier, error) {
	trimmed := strings.TrimSpace(cfg.WebhookSecret)
	if trimmed == "" {
		return nil, errors.New("webhook signing secret is required")
	}
	encoded := strings.TrimPrefix(trimmed, secretPrefix)
	secret, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode webhook signing secret: %w", err)
	}

	tolerance := cfg.WebhookTolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}, nil
}

// VerifyRequest pulls the signing headers off the request and verifies the
// already-read body against them.
func (v *Verifier) VerifyRequest(header http.Header, payload []byte) error {
	return v.Verify(
		header.Get(HeaderID),
		header.Get(HeaderTimestamp),
		header.Get(HeaderSignature),
		payload,
	)
}

// Verify checks the delivery signature. The header presence check runs first
// so unsigned requests are rejected before any crypto work.
func (v *Verifier) Verify(id, timestamp, signature string, payload []byte) error {
	if id == "" || timestamp == "" || signature == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrVerificationFailed
	}
	age := time.Since(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrVerificationFailed
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	// The header may carry several space-separated "v1,<base64>" candidates
	// after a secret rotation. Any single match passes.
	for _, candidate := range strings.Fields(signature) {
		version, encoded, found := strings.Cut(candidate, ",")
		if !found || version != signatureVersion {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrVerificationFailed
}

// Sign produces the "v1,<base64>" signature for a delivery. Used by tests
// and by local delivery tooling.
func (v *Verifier) Sign(id, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return signatureVersion + "," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
