package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/notify/pkg/jwt"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	claims := jwt.Claims{
		Subject:   "user-42",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		IssuedAt:  time.Now().Unix(),
	}

	token, err := v.Generate(claims)
	require.NoError(t, err)

	parsed, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", parsed.Subject)
}

func TestVerifier_Failures(t *testing.T) {
	v, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	t.Run("expired token", func(t *testing.T) {
		token, err := v.Generate(jwt.Claims{
			Subject:   "user-42",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})
		require.NoError(t, err)

		_, err = v.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token, err := v.Generate(jwt.Claims{Subject: "user-42"})
		require.NoError(t, err)

		_, err = v.Verify(token + "x")
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := jwt.NewFromString("another-signing-key-for-testing!!")
		require.NoError(t, err)

		token, err := other.Generate(jwt.Claims{Subject: "user-42"})
		require.NoError(t, err)

		_, err = v.Verify(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify("not-a-jwt")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("empty signing key", func(t *testing.T) {
		_, err := jwt.NewFromString("")
		assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
	})
}

func TestMiddleware(t *testing.T) {
	v, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!")
	require.NoError(t, err)

	token, err := v.Generate(jwt.Claims{
		Subject:   "user-42",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.ClaimsFromContext(r.Context())
		require.True(t, ok)
		gotSubject = claims.Subject
		w.WriteHeader(http.StatusOK)
	})
	handler := jwt.Middleware(v)(next)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", gotSubject)
	})

	t.Run("query token fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
