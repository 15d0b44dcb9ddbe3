// Package signature verifies webhook HMAC signatures.
//
// GitHub signs each delivery with HMAC over the exact request body and sends
// the digest in a header of the form "algorithm=hexdigest". Verification must
// run against the literal received bytes: re-encoding a parsed payload
// produces different bytes and breaks the signature.
//
// All failures collapse into a single generic error so that responses never
// leak whether the header was missing, malformed, or merely wrong.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"strings"
)

// ErrVerificationFailed is returned for every verification failure:
// missing header, unknown algorithm, malformed hex, or digest mismatch.
var ErrVerificationFailed = errors.New("webhook verification failed")

var algorithms = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// Verify checks that header carries a valid HMAC digest of body under secret.
//
// The header is split on the first '=' into (algorithm, hexDigest). A missing
// header is replaced with an empty sha256 digest, which can never match — the
// absence of a signature is a failure, not a bypass. The digest comparison is
// constant-time (crypto/hmac.Equal).
func Verify(body []byte, header string, secret []byte) error {
	if len(secret) == 0 {
		return ErrVerificationFailed
	}

	if header == "" {
		// Always-failing placeholder
		header = "sha256="
	}

	alg, claimedHex, _ := strings.Cut(header, "=")
	newHash, ok := algorithms[strings.ToLower(alg)]
	if !ok {
		return ErrVerificationFailed
	}

	claimed, err := hex.DecodeString(claimedHex)
	if err != nil {
		return ErrVerificationFailed
	}

	mac := hmac.New(newHash, secret)
	mac.Write(body)
	if !hmac.Equal(claimed, mac.Sum(nil)) {
		return ErrVerificationFailed
	}

	return nil
}

// Compute returns the signature header value ("algorithm=hexdigest") for body
// under secret. Used by tests and by anything that needs to sign outbound
// payloads the way GitHub signs inbound ones.
func Compute(alg string, body, secret []byte) (string, error) {
	newHash, ok := algorithms[strings.ToLower(alg)]
	if !ok {
		return "", errors.New("unsupported signature algorithm: " + alg)
	}

	mac := hmac.New(newHash, secret)
	mac.Write(body)
	return alg + "=" + hex.EncodeToString(mac.Sum(nil)), nil
}
