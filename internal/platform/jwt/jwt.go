// Package jwt issues and validates the HS256 bearer tokens used by the
// seller and buyer facing endpoints. Token contents stay minimal: a subject
// and a role; everything compliance-relevant lives server-side.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "medidrop"

// Role partitions API access. Admin review endpoints use the shared admin
// token instead, so tokens carry only marketplace roles.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Claims is the validated view handed to middleware.
type Claims struct {
	SubjectID string
	Role      Role
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and validates tokens with a shared HS256 key.
type Service struct {
	signingKey []byte
	tokenTTL   time.Duration
}

func NewService(signingKey string, tokenTTL time.Duration) *Service {
	return &Service{signingKey: []byte(signingKey), tokenTTL: tokenTTL}
}

// IssueToken mints a token for the given subject. Exposed for dev tooling
// and tests; production token issuance belongs to the marketplace shell.
func (s *Service) IssueToken(subjectID string, role Role, now time.Time) (string, error) {
	claims := tokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &Claims{SubjectID: claims.Subject, Role: Role(claims.Role)}, nil
}
