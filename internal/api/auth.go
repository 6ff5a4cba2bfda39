package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
)

type loginResponse struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// Login exchanges credentials for a token. A 400 or 401 answer is reported as
// ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var resp loginResponse
	err := c.do(ctx, call{
		method:    http.MethodPost,
		route:     "/auth/login",
		path:      "/auth/login",
		body:      creds,
		anonymous: true,
	}, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, se.Message)
		}
		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	return &domain.LoginResult{Token: token, User: resp.User}, nil
}

// Me returns the profile behind the current token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/auth/me",
		path:   "/auth/me",
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
