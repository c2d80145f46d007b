package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
)

// Authenticator exchanges credentials for a bearer token and a session.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (token string, sess *Session, err error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (string, *Session, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (string, *Session, error) {
	return f(ctx, creds)
}

// LoginPath is the remote endpoint used by RemoteAuthenticator.
const LoginPath = "/login"

type loginResponse struct {
	Token string  `json:"token"`
	User  Session `json:"user"`
}

// RemoteAuthenticator logs in against the remote API.
type RemoteAuthenticator struct {
	client *apiclient.Client
}

// NewRemoteAuthenticator returns an Authenticator posting to LoginPath.
func NewRemoteAuthenticator(client *apiclient.Client) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

func (a *RemoteAuthenticator) Authenticate(ctx context.Context, creds Credentials) (string, *Session, error) {
	resp, err := apiclient.Do[loginResponse](ctx, a.client, http.MethodPost, LoginPath, creds)
	if err != nil {
		return "", nil, err
	}
	if resp.Token == "" || resp.User.UserID == "" {
		return "", nil, fmt.Errorf("%w: token or user missing", ErrMalformedLogin)
	}
	return resp.Token, &resp.User, nil
}
