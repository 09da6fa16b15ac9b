package httpapi

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the payload of an admin bearer token.
type AdminClaims struct {
	jwtlib.RegisteredClaims
}

// SignAdminToken issues an HS256 token for the admin routes.
func SignAdminToken(secret string, subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("httpapi: admin secret is required")
	}
	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAdminToken validates the signature and expiry of tokenStr.
func ParseAdminToken(secret string, tokenStr string) (*AdminClaims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &AdminClaims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
