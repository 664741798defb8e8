// Package jwt verifies the bearer credentials presented by clients of the
// notification service. Tokens are HMAC-SHA256 JWTs whose subject claim is
// the local user identifier.
package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims represents the registered JWT claims this service cares about.
// Temporal claims use Unix timestamps; zero values are treated as unset.
type Claims struct {
	Subject   string `json:"sub,omitempty"` // Subject is the local user identifier.
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid checks the temporal claims against the current time.
func (c Claims) Valid() error {
	now := time.Now().Unix()
	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Verifier validates and issues tokens with a shared HMAC-SHA256 key.
// The key should be at least 32 bytes.
type Verifier struct {
	signingKey []byte
}

// New creates a Verifier with the provided signing key.
func New(signingKey []byte) (*Verifier, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Verifier{signingKey: signingKey}, nil
}

// NewFromString is a convenience wrapper around New for string keys.
func NewFromString(signingKey string) (*Verifier, error) {
	return New([]byte(signingKey))
}

// Generate signs the given claims into a compact JWT string. Provided for
// tests and tooling; production tokens come from the identity service.
func (v *Verifier) Generate(claims Claims) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := b64encode(headerJSON) + "." + b64encode(claimsJSON)
	return payload + "." + v.sign(payload), nil
}

// Verify checks the token signature and temporal claims and returns the
// embedded claims. All failures map to the Unauthorized taxonomy.
func (v *Verifier) Verify(tokenString string) (Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	// Constant-time comparison prevents timing attacks on the signature.
	payload := parts[0] + "." + parts[1]
	expected := v.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	headerJSON, err := b64decode(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Claims{}, ErrInvalidToken
	}
	// Reject anything but HS256 to prevent algorithm confusion.
	if hdr.Algorithm != headerAlgorithm {
		return Claims{}, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := b64decode(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if err := claims.Valid(); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func (v *Verifier) sign(payload string) string {
	h := hmac.New(sha256.New, v.signingKey)
	h.Write([]byte(payload))
	return b64encode(h.Sum(nil))
}

// JWT uses unpadded base64url per RFC 7515.
func b64encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func b64decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
