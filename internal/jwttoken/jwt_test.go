package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provena/pkg/domain"
	dErrors "provena/pkg/domain-errors"
)

var jwtService = NewService("test-signing-key", "test-issuer")

var reviewer = domain.Actor{
	ID:    domain.ActorID(uuid.New()),
	Role:  domain.RoleCompliance,
	Email: "reviewer@provena.test",
}

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(reviewer, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, reviewer.ID.String(), claims.UserID)
	assert.Equal(t, string(domain.RoleCompliance), claims.Role)
	assert.Equal(t, reviewer.Email, claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, reviewer, actor)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(reviewer, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewService("another-signing-key", "test-issuer")
	token, err := other.GenerateAccessToken(reviewer, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Claims_Actor_BadRole(t *testing.T) {
	claims := &Claims{UserID: uuid.NewString(), Role: "superuser"}
	_, err := claims.Actor()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
