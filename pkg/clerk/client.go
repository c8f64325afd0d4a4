package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/enums"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
)

const (
	defaultBaseURL            = "https://api.clerk.com/v1"
	errorBodyReadLimit  int64 = 1024
	defaultHTTPTimeout        = 10 * time.Second
)

var errSecretKeyRequired = errors.New("clerk secret key is required")

// Client wraps the identity provider's backend API surface this service uses:
// user reads, public-metadata pushes, and the ban primitive.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a provider client from the configured credentials.
func NewClient(cfg config.ClerkConfig, opts ...Option) (*Client, error) {
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := &Client{
		secretKey:  secretKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	if trimmed := strings.TrimSpace(cfg.APIBaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// User is the subset of the provider's user object this service reads.
type User struct {
	ID             string         `json:"id"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	Banned         bool           `json:"banned"`
	PublicMetadata PublicMetadata `json:"public_metadata"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

// EmailAddress mirrors the provider's email entry.
type EmailAddress struct {
	ID           string       `json:"id"`
	EmailAddress string       `json:"email_address"`
	Verification Verification `json:"verification"`
}

// Verification carries the provider's verification status for a contact field.
type Verification struct {
	Status string `json:"status"`
}

// PublicMetadata is the session-claim metadata pushed onto provider users.
// The roles list is additive: it accumulates every role the user has held.
type PublicMetadata struct {
	Role  enums.UserRole `json:"role,omitempty"`
	Roles []string       `json:"roles,omitempty"`
}

// GetUser fetches the provider user for the given id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "clerk client not configured")
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "users/"+url.PathEscape(trimmed), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserMetadata merges the provided public metadata into the provider
// user so that freshly minted session tokens carry the new role claims.
func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, metadata PublicMetadata) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "clerk client not configured")
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !metadata.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", metadata.Role))
	}

	body := struct {
		PublicMetadata PublicMetadata `json:"public_metadata"`
	}{PublicMetadata: metadata}

	return c.do(ctx, http.MethodPatch, "users/"+url.PathEscape(trimmed)+"/metadata", body, nil)
}

// BanUser invokes the provider's ban primitive, which also revokes the user's
// active sessions on the provider side.
func (c *Client) BanUser(ctx context.Context, userID string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "clerk client not configured")
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	return c.do(ctx, http.MethodPost, "users/"+url.PathEscape(trimmed)+"/ban", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/" + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal clerk request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build clerk request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute clerk request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "clerk user not found")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"clerk request failed",
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode clerk response")
		}
	}
	return nil
}

// PrimaryEmail returns the first email address on the provider user, or nil.
func (u *User) PrimaryEmail() *EmailAddress {
	if u == nil || len(u.EmailAddresses) == 0 {
		return nil
	}
	return &u.EmailAddresses[0]
}
