package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	internaljwt "quote-desk-backend/internal/jwt"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated identity on ctx.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for websocket upgrades.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
			return strings.TrimSpace(header[len("Bearer "):])
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// ValidateJWTMiddleware accepts tokens of role whose subject passes allow.
// A nil allow accepts any subject.
func ValidateJWTMiddleware(role internaljwt.Role, allow func(string) bool) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := internaljwt.ParseToken(tokenString, role)
			if errors.Is(err, internaljwt.ErrTokenExpired) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if allow != nil && !allow(subject.Email) {
				log.Printf("auth: %s is not on the admin list", subject.Email)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next(w, r.WithContext(WithIdentity(r.Context(), subject.Email)))
		}
	}
}

// ValidateStaffJWT only lets through staff tokens of the configured admins.
func ValidateStaffJWT(admins []string) Middleware {
	set := make(map[string]struct{}, len(admins))
	for _, admin := range admins {
		set[admin] = struct{}{}
	}
	return ValidateJWTMiddleware(internaljwt.RoleStaff, func(email string) bool {
		_, ok := set[email]
		return ok
	})
}

func ValidateCustomerJWT() Middleware {
	return ValidateJWTMiddleware(internaljwt.RoleCustomer, nil)
}
