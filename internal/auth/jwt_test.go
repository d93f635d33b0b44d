package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	req := require.New(t)
	cfg := testConfig()

	token, err := GenerateToken(cfg, " alice ")
	req.NoError(err)

	claims, err := ValidateToken(cfg, token)
	req.NoError(err)
	req.Equal("alice", claims.Username)
	req.Equal("test", claims.Issuer)
}

func TestGenerateRejectsBlankName(t *testing.T) {
	_, err := GenerateToken(testConfig(), "   ")
	require.ErrorIs(t, err, ErrInvalidUsername)
}

func TestTokensDisabledWithoutSecret(t *testing.T) {
	req := require.New(t)
	cfg := &JWTConfig{TTL: time.Hour}

	_, err := GenerateToken(cfg, "alice")
	req.ErrorIs(err, ErrTokensDisabled)
	_, err = ValidateToken(cfg, "whatever")
	req.ErrorIs(err, ErrTokensDisabled)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	cfg := testConfig()

	other := testConfig()
	other.Secret = []byte("another-secret")
	wrongSecret, err := GenerateToken(other, "alice")
	require.NoError(t, err)

	wrongIssuer := testConfig()
	wrongIssuer.Issuer = "elsewhere"
	badIssuer, err := GenerateToken(wrongIssuer, "alice")
	require.NoError(t, err)

	expiredCfg := testConfig()
	expiredCfg.TTL = -time.Minute
	expired, err := GenerateToken(expiredCfg, "alice")
	require.NoError(t, err)

	noName, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "test",
		"aud": "test",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString(cfg.Secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: wrongSecret},
		{name: "wrong issuer", token: badIssuer},
		{name: "expired", token: expired},
		{name: "missing username", token: noName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(cfg, tt.token)
			require.Error(t, err)
		})
	}
}
