package account

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ibanking/tuitionpay/pkg/core"
	"github.com/ibanking/tuitionpay/pkg/gateway"
	"github.com/ibanking/tuitionpay/pkg/session"
)

const (
	loginPath = "/auth/authentication/login"
	mePath    = "/account/me"
)

type doer interface {
	Do(ctx context.Context, r gateway.Request, out interface{}) error
}

type credentialStore interface {
	Set(session.Credential)
	Clear()
}

// Client talks to the authentication and account services.
type Client struct {
	gw    doer
	store credentialStore
}

func NewClient(gw doer, store credentialStore) *Client {
	return &Client{gw: gw, store: store}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login authenticates the user and stores the issued credential.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return core.NewError(core.KindInvalidInput, "username and password are required")
	}
	var resp loginResponse
	err := c.gw.Do(ctx, gateway.Request{
		Method:   http.MethodPost,
		Path:     loginPath,
		Body:     loginRequest{Username: username, Password: password},
		Endpoint: "login",
	}, &resp)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	if resp.AccessToken == "" {
		return &core.Error{Kind: core.KindTransport, Reason: "empty access token"}
	}
	c.store.Set(session.Credential(resp.AccessToken))
	return nil
}

// Logout discards the stored credential. The backend keeps no session state.
func (c *Client) Logout() {
	c.store.Clear()
}

type profileResponse struct {
	FullName    string          `json:"full_name"`
	PhoneNumber string          `json:"phone_number"`
	Email       string          `json:"email"`
	Balance     decimal.Decimal `json:"balance"`
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (core.Profile, error) {
	var resp profileResponse
	err := c.gw.Do(ctx, gateway.Request{
		Method:   http.MethodGet,
		Path:     mePath,
		Auth:     true,
		Endpoint: "account_me",
	}, &resp)
	if err != nil {
		return core.Profile{}, errors.Wrap(err, "get profile")
	}
	return core.Profile{
		FullName:    resp.FullName,
		PhoneNumber: resp.PhoneNumber,
		Email:       resp.Email,
		Balance:     resp.Balance,
	}, nil
}
