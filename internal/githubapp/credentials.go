package githubapp

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mattjoyce/portcullis/internal/config"
)

// ErrCredential marks a local signing/configuration failure: a malformed or
// absent private key. This is a startup-fatal condition, not a per-request
// recoverable one.
var ErrCredential = errors.New("github app credential error")

// Credentials holds the process-wide GitHub App identity. Immutable after
// load; the private key and webhook secret must never be logged.
type Credentials struct {
	AppID         int64
	WebhookSecret []byte
	APIBaseURL    string

	privateKey *rsa.PrivateKey
}

// LoadCredentials builds Credentials from validated configuration. The PEM
// key is read from the configured path or taken inline; inline keys often
// arrive via environment variables with literal "\n" sequences, which are
// normalized to real newlines before parsing.
func LoadCredentials(cfg config.GitHubConfig) (*Credentials, error) {
	pem := cfg.PrivateKey
	if cfg.PrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading private key %s: %v", ErrCredential, cfg.PrivateKeyPath, err)
		}
		pem = string(data)
	}
	pem = strings.ReplaceAll(pem, `\n`, "\n")

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing private key: %v", ErrCredential, err)
	}

	return &Credentials{
		AppID:         cfg.AppID,
		WebhookSecret: []byte(cfg.WebhookSecret),
		APIBaseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		privateKey:    key,
	}, nil
}
