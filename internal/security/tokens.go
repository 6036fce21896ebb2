package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims holds JWT claims for the backend's access token: the user id in sub and the role.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Expired reports whether the token carries an exp at or before now. Tokens without exp never expire.
func (c *AccessClaims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.Time.After(now)
}

// TokenProvider issues and validates HS256 access tokens with a shared secret.
type TokenProvider struct {
	secret    []byte
	accessTTL time.Duration
	nowF      func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. accessTTL <= 0 defaults to 7 days.
func NewTokenProvider(secret []byte, accessTTL time.Duration) *TokenProvider {
	if accessTTL <= 0 {
		accessTTL = 7 * 24 * time.Hour
	}
	return &TokenProvider{secret: secret, accessTTL: accessTTL, nowF: func() time.Time { return time.Now().UTC() }}
}

// IssueAccess issues an access JWT for userID with the given role.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(userID, role string) (token string, expiresAt time.Time, err error) {
	now := p.nowF()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	return token, expiresAt, err
}

// ValidateAccess parses and validates the access token (signature, exp).
// Returns userID and role, or ErrInvalidToken.
func (p *TokenProvider) ValidateAccess(tokenString string) (userID, role string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
			return p.secret, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, nil
}

// InspectAccess decodes the claims of tokenString without verifying the signature. The client has no
// key; it only reads exp to skip a network round trip for a token that is already dead. Opaque
// (non-JWT) tokens return ErrInvalidToken.
func InspectAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
