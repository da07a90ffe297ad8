package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/bazaar"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 1, "kinderbasar")
	id := uuid.New()
	token, err := svc.Generate(id, "kasse@example.com", bazaar.UserRoleBilling)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "kasse@example.com", claims.Email)
	assert.Equal(t, bazaar.UserRoleBilling, claims.Role)
}

func TestJWT_RejectsForeignTokens(t *testing.T) {
	token, err := NewJWTService("secret", 1, "kinderbasar").Generate(uuid.New(), "a@example.com", bazaar.UserRoleAdmin)
	require.NoError(t, err)

	_, err = NewJWTService("other", 1, "kinderbasar").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTService("secret", 1, "someone-else").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	svc := NewJWTService("secret", -1, "kinderbasar")
	token, err := svc.Generate(uuid.New(), "a@example.com", bazaar.UserRoleSeller)
	require.NoError(t, err)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTOTP_SetupAndValidate(t *testing.T) {
	setup, err := NewTOTPSetup("Kinderbasar", "anna@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/")
	assert.Contains(t, setup.QRCodePNG, "data:image/png;base64,")

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	assert.True(t, ValidateTOTP(code, setup.Secret))
	assert.False(t, ValidateTOTP("", setup.Secret))
	assert.False(t, ValidateTOTP(code, ""))
}
