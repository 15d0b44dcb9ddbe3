package githubapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrAuthentication marks a remote rejection of the assertion/installation
// pairing: the app is not installed there, or the assertion is not accepted.
var ErrAuthentication = errors.New("installation authentication rejected")

// ErrTransient marks a network failure, timeout, or 5xx during the token
// exchange. The exchanger itself never retries; the caller decides.
var ErrTransient = errors.New("transient token exchange failure")

// InstallationToken is an access token scoped to exactly one installation,
// with the remote-assigned expiry. Owned for one request's handling only.
type InstallationToken struct {
	Value     string
	ExpiresAt time.Time
}

// Exchanger trades a signed app assertion for an installation token via the
// GitHub token-issuance endpoint.
type Exchanger struct {
	baseURL    string
	httpClient *http.Client
}

// NewExchanger returns an Exchanger against the given API base URL. Every
// exchange call is bounded by timeout in addition to the caller's context.
func NewExchanger(baseURL string, timeout time.Duration) *Exchanger {
	return &Exchanger{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type accessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Exchange performs exactly one POST to the installation access-token
// endpoint, authenticated with the assertion as a bearer credential.
func (e *Exchanger) Exchange(ctx context.Context, assertion string, installationID int64) (*InstallationToken, error) {
	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", e.baseURL, installationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("%w: building exchange request: %v", ErrTransient, err)
	}
	req.Header.Set("Authorization", "Bearer "+assertion)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: exchange canceled: %v", ErrTransient, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		// Do not echo the response body: it may describe our own credentials.
		return nil, fmt.Errorf("%w: installation %d (status %d)", ErrAuthentication, installationID, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d from token endpoint", ErrTransient, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading exchange response: %v", ErrTransient, err)
	}

	var tok accessTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("%w: decoding exchange response: %v", ErrTransient, err)
	}
	if tok.Token == "" {
		return nil, fmt.Errorf("%w: token endpoint returned empty token", ErrTransient)
	}

	return &InstallationToken{Value: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}
