package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// Claims represents JWT claims
type Claims struct {
	TenantID   string      `json:"tenant_id"`
	EmployeeID string      `json:"employee_id"`
	Role       models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Caller converts the claims into the explicit caller passed to services.
func (c *Claims) Caller() models.Caller {
	return models.Caller{TenantID: c.TenantID, EmployeeID: c.EmployeeID, Role: c.Role}
}

// GenerateJWT signs a token for caller valid for ttl.
func GenerateJWT(caller models.Caller, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TenantID:   caller.TenantID,
		EmployeeID: caller.EmployeeID,
		Role:       caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.EmployeeID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateJWT validates a JWT token and returns the claims. Tokens without a
// tenant or role are rejected.
func ValidateJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TenantID == "" || claims.Role == "" {
		return nil, errors.New("token is missing tenant or role")
	}
	return claims, nil
}
