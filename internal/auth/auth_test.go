package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	Configure("test-secret", time.Hour)

	token, err := GenerateToken(42, RoleFinance)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, RoleFinance, claims.Role)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	Configure("secret-a", time.Hour)
	token, err := GenerateToken(1, RoleAdmin)
	require.NoError(t, err)

	Configure("secret-b", time.Hour)
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	Configure("test-secret", time.Hour)
	claims := &Claims{
		UserID: 1,
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestCan(t *testing.T) {
	tests := []struct {
		role   string
		action string
		want   bool
	}{
		{RoleAdmin, ProjectPurge, true},
		{RoleManager, ProjectPurge, false},
		{RoleManager, ProjectLock, true},
		{RoleFinance, FinanceWrite, true},
		{RoleFinance, ProjectLock, false},
		{RoleViewer, FinanceRead, true},
		{RoleViewer, FinanceWrite, false},
		{"intruder", FinanceRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.action))
		})
	}
	assert.True(t, ValidRole(RoleViewer))
	assert.False(t, ValidRole("root"))
}
