package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"teamcalendar/internal/domain"
)

// tokenIssuer is the iss claim stamped on and required from every token.
const tokenIssuer = "teamcalendar"

// clockSkew tolerated on exp and iat.
const clockSkew = 30 * time.Second

// ErrInvalidToken is returned for any token that fails parsing, signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

type jwtClaims struct {
	jwt.RegisteredClaims
	OrganizationID string `json:"org"`
}

// hs256Key signs and verifies tokens with one shared secret.
type hs256Key []byte

// NewJWTIssuer returns a TokenIssuer that signs HS256 tokens with secret.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return hs256Key(secret)
}

// NewJWTVerifier returns a TokenVerifier accepting HS256 tokens from NewJWTIssuer.
// Both sub and org must be UUIDs.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return hs256Key(secret)
}

func (k hs256Key) Issue(userID, orgID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OrganizationID: orgID,
	}).SignedString([]byte(k))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (k hs256Key) Verify(raw string) (domain.Principal, error) {
	var claims jwtClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return []byte(k), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	switch {
	case !domain.IsUUID(claims.Subject):
		return domain.Principal{}, fmt.Errorf("%w: sub must be a UUID", ErrInvalidToken)
	case !domain.IsUUID(claims.OrganizationID):
		return domain.Principal{}, fmt.Errorf("%w: org must be a UUID", ErrInvalidToken)
	}
	return domain.Principal{UserID: claims.Subject, OrganizationID: claims.OrganizationID}, nil
}
