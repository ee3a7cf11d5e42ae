package apple

import (
	"context"

	"golang.org/x/oauth2"
)

// Client exchanges Sign in with Apple authorization codes against Apple's
// token endpoint. The exchange is a secondary validation step; sign-in
// succeeds on identity-token verification alone, so exchange failures are
// logged by the caller rather than surfaced.
type Client struct {
	config *oauth2.Config
}

// NewClient creates an OAuth2 client for the given bundle id. clientSecret
// is the Apple-issued JWT client secret; when empty the exchange is
// skipped entirely.
func NewClient(bundleID, clientSecret string) *Client {
	if clientSecret == "" {
		return &Client{}
	}
	return &Client{
		config: &oauth2.Config{
			ClientID:     bundleID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  Issuer + "/auth/authorize",
				TokenURL: Issuer + "/auth/token",
			},
		},
	}
}

// Enabled reports whether code exchange is configured.
func (c *Client) Enabled() bool {
	return c.config != nil
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}
