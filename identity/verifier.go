// Package identity turns a bearer credential into the verified id of the acting user.
package identity

import (
	"context"
	"fmt"

	"eldertales_api/types"

	"firebase.google.com/go/auth"
)

type Verifier interface {
	// Verify returns the actor id carried by token, or an error wrapping
	// types.ErrUnauthorized.
	Verify(ctx context.Context, token string) (string, error)
}

// FirebaseVerifier checks Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ID token: %v", types.ErrUnauthorized, err)
	}
	return decoded.UID, nil
}
