package githubapp

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AssertionTTL is the lifetime of a minted app assertion. GitHub rejects
// assertions whose exp-iat window exceeds 10 minutes.
const AssertionTTL = 10 * time.Minute

// Issuer mints short-lived RS256 assertions identifying the app.
type Issuer struct {
	creds *Credentials
	now   func() time.Time
}

// NewIssuer returns an Issuer backed by the given credentials.
func NewIssuer(creds *Credentials) *Issuer {
	return &Issuer{creds: creds, now: time.Now}
}

// Mint signs a fresh assertion with claims {iat: now, exp: now+10m, iss: appID}.
// A new assertion is minted per use and never reused past expiry.
func (i *Issuer) Mint() (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(AssertionTTL)),
		Issuer:    strconv.FormatInt(i.creds.AppID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(i.creds.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: signing assertion: %v", ErrCredential, err)
	}
	return signed, nil
}
