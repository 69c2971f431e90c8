package identity

import (
	"context"
	"fmt"

	"eldertales_api/types"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier checks ID tokens issued by an OpenID Connect provider for one client.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier fetches the provider's discovery document, so it blocks on the network.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider %s: %w", issuer, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ID token: %v", types.ErrUnauthorized, err)
	}
	return idToken.Subject, nil
}
