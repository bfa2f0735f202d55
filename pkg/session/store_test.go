package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub string, exp time.Time) Credential {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("secret"))
	require.Nil(t, err)
	return Credential(s)
}

func TestStore_Lifecycle(t *testing.T) {
	var s Store
	_, ok := s.Get()
	require.False(t, ok)

	s.Set("opaque-token")
	c, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, Credential("opaque-token"), c)
	require.Equal(t, "", s.Subject())

	s.Set("second-token")
	c, _ = s.Get()
	require.Equal(t, Credential("second-token"), c)

	s.Clear()
	_, ok = s.Get()
	require.False(t, ok)

	// clearing twice is fine
	s.Clear()
}

func TestStore_JWTExpiry(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		exp    time.Time
		wantOk bool
	}{
		{name: "valid", exp: now.Add(time.Hour), wantOk: true},
		{name: "expired", exp: now.Add(-time.Minute), wantOk: false},
		{name: "expires right now", exp: now, wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{now: func() time.Time { return now }}
			s.Set(signedToken(t, "user-1", tt.exp))
			_, ok := s.Get()
			require.Equal(t, tt.wantOk, ok)
			require.Equal(t, "user-1", s.Subject())
		})
	}
}
