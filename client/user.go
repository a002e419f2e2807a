package client

import (
	"context"
	"net/http"
)

// GetAuthenticatedUser resolves the user behind token. An empty token
// returns the service identity.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token string) (*User, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, url: c.baseURL + "/user", token: token})
	if err != nil {
		return nil, err
	}
	var user User
	if err := decode(resp.body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
