package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "codereview-backend"

// ErrInvalidClaims is returned for a well-signed token missing required claims.
var ErrInvalidClaims = errors.New("invalid token claims")

// CustomClaims includes standard JWT claims plus the caller's scope.
type CustomClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	LocalSiteID uuid.UUID `json:"local_site_id"` // uuid.Nil for users of the global site
	IsAdmin     bool      `json:"is_admin"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the caller identity stored in the context.
func (c *CustomClaims) Principal() Principal {
	p := Principal{UserID: c.UserID, IsAdmin: c.IsAdmin}
	if c.LocalSiteID != uuid.Nil {
		id := c.LocalSiteID
		p.LocalSiteID = &id
	}
	return p
}

// NewAccessToken generates a new JWT access token.
func NewAccessToken(p Principal, jwtSecret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:  p.UserID,
		IsAdmin: p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   p.UserID.String(),
		},
	}
	if p.LocalSiteID != nil {
		claims.LocalSiteID = *p.LocalSiteID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT for user %s: %w", p.UserID, err)
	}
	return signedToken, nil
}

// ParseAccessToken validates tokenString and returns its claims.
func ParseAccessToken(tokenString, jwtSecret string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidClaims)
	}
	return claims, nil
}
