package v1

import (
	"context"

	"shiftreport.com/shiftreport/security"
)

type TokenEndpoint struct {
	transport *Transport
}

func (e *TokenEndpoint) Obtain(ctx context.Context, username, password string) (*security.TokenPair, error) {
	resp, err := e.transport.Post(ctx, "/token/", map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	return decode[security.TokenPair](resp)
}

// Login obtains a token pair and authenticates every later request with its access token.
func (e *TokenEndpoint) Login(ctx context.Context, username, password string) (*security.TokenPair, error) {
	pair, err := e.Obtain(ctx, username, password)
	if err != nil {
		return nil, err
	}
	e.transport.AuthToken = pair.Access
	return pair, nil
}

func (e *TokenEndpoint) Refresh(ctx context.Context, refresh string) (string, error) {
	resp, err := e.transport.Post(ctx, "/token/refresh/", map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}
	out, err := decode[struct {
		Access string `json:"access"`
	}](resp)
	if err != nil {
		return "", err
	}
	return out.Access, nil
}

func (e *TokenEndpoint) Blacklist(ctx context.Context, refresh string) error {
	_, err := e.transport.Post(ctx, "/token/blacklist/", map[string]string{"refresh": refresh})
	return err
}
