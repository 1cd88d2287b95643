package scaleway

import (
	"context"
	"fmt"
)

// Organization is an account the secret key can act for.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Organizations lists the organizations visible to the secret key.
func (c *Client) Organizations(ctx context.Context) ([]Organization, error) {
	var out struct {
		Organizations []Organization `json:"organizations"`
	}
	if err := c.do(ctx, "GET", c.AccountURL+"/organizations", nil, &out); err != nil {
		return nil, err
	}
	return out.Organizations, nil
}

// DefaultOrganization returns the first organization of the secret key, which
// is the account's own.
func (c *Client) DefaultOrganization(ctx context.Context) (string, error) {
	orgs, err := c.Organizations(ctx)
	if err != nil {
		return "", err
	}
	if len(orgs) == 0 {
		return "", fmt.Errorf("secret key belongs to no organization")
	}
	return orgs[0].ID, nil
}
