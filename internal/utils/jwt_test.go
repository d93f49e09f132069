package utils

import (
    "testing"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
    tok, err := NewAccessToken("s3cret", 42, "ORGANIZER", 15)
    require.NoError(t, err)

    parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
    require.NoError(t, err)
    claims := parsed.Claims.(jwt.MapClaims)
    assert.Equal(t, float64(42), claims["sub"])
    assert.Equal(t, "ORGANIZER", claims["role"])
    assert.Equal(t, float64(tok.Exp.Unix()), claims["exp"])
}

func TestNewAccessTokenRejectsBadInput(t *testing.T) {
    _, err := NewAccessToken("", 1, "USER", 15)
    assert.Error(t, err)
    _, err = NewAccessToken("s", 1, "USER", 0)
    assert.Error(t, err)
}
