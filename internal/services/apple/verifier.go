package apple

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Issuer is the issuer claim Apple places on identity tokens.
const Issuer = "https://appleid.apple.com"

// Identity holds the claims this service cares about from a verified
// Apple identity token.
type Identity struct {
	Subject string
	Email   string
}

// KeySource provides Apple's signing keys. Satisfied by KeyCache;
// an interface so verifier tests can supply a local key set.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// Verifier validates Apple-issued identity tokens.
type Verifier struct {
	keys     KeySource
	audience string // the app's bundle identifier
}

// NewVerifier creates a verifier bound to one client audience.
func NewVerifier(keys KeySource, bundleID string) *Verifier {
	return &Verifier{keys: keys, audience: bundleID}
}

// Verify checks signature, issuer, audience and expiry, and extracts the
// subject and email claims.
func (v *Verifier) Verify(ctx context.Context, identityToken string) (*Identity, error) {
	keys, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get signing keys: %w", err)
	}

	token, err := jwt.Parse([]byte(identityToken),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify identity token: %w", err)
	}

	identity := &Identity{Subject: token.Subject()}
	if identity.Subject == "" {
		return nil, fmt.Errorf("identity token missing subject claim")
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			identity.Email = emailStr
		}
	}

	return identity, nil
}
