package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/gateway"
	"github.com/ibanking/tuitionpay/pkg/session"
)

func newBackend(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Post("/auth/authentication/login", func(w http.ResponseWriter, req *http.Request) {
		var body loginRequest
		require.Nil(t, json.NewDecoder(req.Body).Decode(&body))
		if body.Username != "student" || body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"token-1"}`))
	})
	r.Get("/account/me", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user_id":"u1","full_name":"Nguyen Van A","phone_number":"0900000000","email":"a@example.com","balance":12500000.5}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LoginAndMe(t *testing.T) {
	srv := newBackend(t)
	store := session.NewStore()
	c := NewClient(gateway.New(srv.URL, store), store)

	require.Nil(t, c.Login(context.Background(), "student", "secret"))
	cred, ok := store.Get()
	require.True(t, ok)
	require.Equal(t, session.Credential("token-1"), cred)

	profile, err := c.Me(context.Background())
	require.Nil(t, err)
	require.Equal(t, "Nguyen Van A", profile.FullName)
	require.Equal(t, "0900000000", profile.PhoneNumber)
	require.Equal(t, "a@example.com", profile.Email)
	require.True(t, decimal.RequireFromString("12500000.5").Equal(profile.Balance))

	c.Logout()
	_, ok = store.Get()
	require.False(t, ok)

	_, err = c.Me(context.Background())
	require.True(t, errors.Is(err, core.ErrUnauthorized))
}

func TestClient_LoginFailures(t *testing.T) {
	srv := newBackend(t)
	store := session.NewStore()
	c := NewClient(gateway.New(srv.URL, store), store)

	err := c.Login(context.Background(), "", "secret")
	require.True(t, errors.Is(err, core.ErrInvalidInput))

	err = c.Login(context.Background(), "student", "wrong")
	require.True(t, errors.Is(err, core.ErrUnauthorized))
	require.Equal(t, "Invalid credentials", core.ReasonOf(err))
	_, ok := store.Get()
	require.False(t, ok)
}
