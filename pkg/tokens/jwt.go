package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by an admin session token. The alarm system has a single
// administrator, so the subject is fixed and only the session ID varies.
type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type Generator struct {
	secret []byte
	ttl    time.Duration
}

func NewGenerator(secret string, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Generator{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (g *Generator) GenerateSessionToken(sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "hearthguard-alarmd",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

func (g *Generator) ValidateSessionToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL returns the configured session lifetime.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}
