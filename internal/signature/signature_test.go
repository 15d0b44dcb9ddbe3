package signature

import (
	"strings"
	"testing"
)

func TestVerify(t *testing.T) {
	secret := []byte("test-secret-key")
	body := []byte(`{"action":"opened","repository":{"full_name":"octo/test"}}`)

	sig256, err := Compute("sha256", body, secret)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	sig1, err := Compute("sha1", body, secret)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	tests := []struct {
		name    string
		body    []byte
		header  string
		secret  []byte
		wantErr bool
	}{
		{
			name:   "valid sha256 signature",
			body:   body,
			header: sig256,
			secret: secret,
		},
		{
			name:   "valid sha1 signature",
			body:   body,
			header: sig1,
			secret: secret,
		},
		{
			name:    "wrong digest",
			body:    body,
			header:  "sha256=" + strings.Repeat("0", 64),
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "tampered body",
			body:    []byte(`{"action":"opened","repository":{"full_name":"evil/test"}}`),
			header:  sig256,
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "wrong secret",
			body:    body,
			header:  sig256,
			secret:  []byte("wrong-secret"),
			wantErr: true,
		},
		{
			name:    "missing header is a failure not a bypass",
			body:    body,
			header:  "",
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "empty secret",
			body:    body,
			header:  sig256,
			secret:  nil,
			wantErr: true,
		},
		{
			name:    "unsupported algorithm",
			body:    body,
			header:  "md5=abcdef",
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "malformed hex",
			body:    body,
			header:  "sha256=not-valid-hex",
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "no equals sign",
			body:    body,
			header:  "sha256",
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "truncated digest",
			body:    body,
			header:  sig256[:len(sig256)-2],
			secret:  secret,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.body, tt.header, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}

			// All failures must be the one generic error (no information leakage)
			if err != nil && err != ErrVerificationFailed {
				t.Errorf("error should be ErrVerificationFailed, got: %v", err)
			}
		})
	}
}

// Digests of equal length must take the comparison path regardless of where
// the first mismatching byte sits; crypto/hmac.Equal guarantees the
// constant-time property, this test pins that every such case reaches it and
// fails uniformly.
func TestVerify_MismatchPositionIndependent(t *testing.T) {
	secret := []byte("s3cret")
	body := []byte("payload")

	valid, err := Compute("sha256", body, secret)
	if err != nil {
		t.Fatal(err)
	}
	digest := strings.TrimPrefix(valid, "sha256=")

	for i := 0; i < len(digest); i++ {
		flipped := []byte(digest)
		if flipped[i] == 'a' {
			flipped[i] = 'b'
		} else {
			flipped[i] = 'a'
		}
		if err := Verify(body, "sha256="+string(flipped), secret); err != ErrVerificationFailed {
			t.Errorf("flip at %d: Verify() = %v, want ErrVerificationFailed", i, err)
		}
	}
}

func TestCompute_UnsupportedAlgorithm(t *testing.T) {
	if _, err := Compute("md5", []byte("x"), []byte("y")); err == nil {
		t.Error("Compute() should reject unsupported algorithms")
	}
}
