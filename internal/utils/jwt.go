package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleOrgAdmin  = "org:admin"
	RoleOrgMember = "org:member"
)

// Claims is the session issued by the identity provider. The subject is the
// provider's user id; org_id is the organization the session is acting in.
type Claims struct {
	OrgID   string `json:"org_id"`
	OrgRole string `json:"org_role"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the identity-provider user id.
func (c *Claims) UserID() string {
	return c.Subject
}

var (
	jwtMu     sync.RWMutex
	jwtSecret []byte
	jwtIssuer string
)

func SetJWTSecret(secret string) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecret = []byte(secret)
}

// SetJWTIssuer enables issuer validation. An empty issuer disables it.
func SetJWTIssuer(issuer string) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtIssuer = issuer
}

func signingConfig() ([]byte, string) {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	return jwtSecret, jwtIssuer
}

// GenerateToken signs a session token. Production tokens come from the identity
// provider; this is used by tests and local tooling.
func GenerateToken(userID, orgID, orgRole string, expireHours int) (string, error) {
	secret, issuer := signingConfig()
	now := time.Now()
	claims := Claims{
		OrgID:   orgID,
		OrgRole: orgRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenString string) (*Claims, error) {
	secret, issuer := signingConfig()

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
