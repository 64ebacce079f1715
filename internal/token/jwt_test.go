package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atplgurukul/gurukul-auth/internal/model"
)

func TestJWT_GenerateAndParse(t *testing.T) {
	j := NewJWT("test-secret")

	claims := model.Claims{
		UserID: uuid.New(),
		Email:  "ann@x.com",
		Role:   model.RoleStudent,
	}

	tokenString, err := j.Generate(claims)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsed, err := j.Parse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, parsed.UserID)
	assert.Equal(t, claims.Email, parsed.Email)
	assert.Equal(t, claims.Role, parsed.Role)
}

func TestJWT_Parse_WrongSecret(t *testing.T) {
	issuer := NewJWT("secret-one")
	verifier := NewJWT("secret-two")

	tokenString, err := issuer.Generate(model.Claims{UserID: uuid.New(), Email: "a@b.c", Role: model.RoleTeacher})
	require.NoError(t, err)

	_, err = verifier.Parse(tokenString)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidToken))
}

func TestJWT_Parse_Malformed(t *testing.T) {
	j := NewJWT("test-secret")

	_, err := j.Parse("not-a-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidToken))
}

func TestJWT_Parse_Expired(t *testing.T) {
	secret := "test-secret"
	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * tokenTTL)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-tokenTTL)),
		},
		UserID: uuid.New(),
		Email:  "a@b.c",
		Role:   model.RoleStudent,
	})
	tokenString, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewJWT(secret).Parse(tokenString)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidToken))
}

func TestJWT_Parse_WrongSigningMethod(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: uuid.New(),
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWT("test-secret").Parse(tokenString)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidToken))
}
