package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlog/internal/platform/middleware"
	dErrors "streamlog/pkg/domain-errors"
)

func adminUser() middleware.Claims {
	return middleware.Claims{
		UserID:      7,
		Login:       "admin",
		Email:       "admin@example.com",
		DisplayName: "Site Admin",
		Roles:       []string{"administrator"},
		RoleLabel:   "Administrator",
	}
}

func TestRoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "streamlog", "streamlog-admin")

	token, err := svc.GenerateAccessToken(adminUser(), time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, adminUser(), *claims)
}

func TestExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "streamlog", "streamlog-admin")

	token, err := svc.GenerateAccessToken(adminUser(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestWrongSigningKey(t *testing.T) {
	issuer := NewJWTService("key-one", "streamlog", "streamlog-admin")
	verifier := NewJWTService("key-two", "streamlog", "streamlog-admin")

	token, err := issuer.GenerateAccessToken(adminUser(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "streamlog", "streamlog-admin")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
