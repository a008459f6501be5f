package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
)

// ParseToken checks the role char, signature and expiry of tokenString.
func ParseToken(tokenString string, role Role) (Subject, error) {
	if tokenString == "" {
		return Subject{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	suffix := role.Suffix()
	if suffix == "" {
		return Subject{}, ErrUnknownRole
	}
	if !strings.HasSuffix(tokenString, suffix) {
		return Subject{}, fmt.Errorf("%w: role mismatch", ErrInvalidToken)
	}
	tokenString = strings.TrimSuffix(tokenString, suffix)

	secret, err := secretFor(role)
	if err != nil {
		return Subject{}, err
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Subject{}, ErrTokenExpired
		}
		return Subject{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Subject{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Subject{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return Subject{}, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return Subject{}, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}

	return Subject{Email: email, ExpiresAt: int64(exp)}, nil
}
