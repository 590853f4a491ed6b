package slack

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/nemanjakrstic/snitch/internal/recipients"
	"github.com/nemanjakrstic/snitch/internal/types"
)

type lookupResponse struct {
	response
	User struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		RealName string `json:"real_name"`
		Profile  struct {
			DisplayName string `json:"display_name"`
			RealName    string `json:"real_name"`
			Image192    string `json:"image_192"`
			Image72     string `json:"image_72"`
		} `json:"profile"`
	} `json:"user"`
}

// LookupByEmail implements recipients.Directory via users.lookupByEmail.
// An unknown address yields recipients.ErrNotFound.
func (c *Client) LookupByEmail(ctx context.Context, email string) (*types.Identity, error) {
	var out lookupResponse
	err := c.get(ctx, "users.lookupByEmail", url.Values{"email": {email}}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "users_not_found" {
			return nil, fmt.Errorf("%s: %w", email, recipients.ErrNotFound)
		}
		return nil, err
	}

	u := out.User
	if u.ID == "" {
		return nil, fmt.Errorf("%s: %w", email, recipients.ErrNotFound)
	}
	return &types.Identity{
		ID:     u.ID,
		Name:   firstNonEmpty(u.RealName, u.Profile.RealName, u.Profile.DisplayName, u.Name),
		Avatar: firstNonEmpty(u.Profile.Image192, u.Profile.Image72),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
