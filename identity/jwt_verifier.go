package identity

import (
	"context"
	"fmt"
	"time"

	"eldertales_api/types"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an HS256 access token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 access tokens signed with a shared secret.
type JWTVerifier struct {
	secretKey []byte
	issuer    string
}

func NewJWTVerifier(secretKey, issuer string) *JWTVerifier {
	return &JWTVerifier{secretKey: []byte(secretKey), issuer: issuer}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secretKey, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse token: %v", types.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid token claims", types.ErrUnauthorized)
	}

	actorId := claims.UserID
	if actorId == "" {
		actorId = claims.Subject
	}
	if actorId == "" {
		return "", fmt.Errorf("%w: token carries no subject", types.ErrUnauthorized)
	}
	return actorId, nil
}

// Sign issues a token for userId that Verify accepts until expiry elapses.
func (v *JWTVerifier) Sign(userId string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   userId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
