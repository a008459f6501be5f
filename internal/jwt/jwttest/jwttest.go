// Package jwttest signs tokens the way the login services do, for tests of
// code that only verifies them.
package jwttest

import (
	"testing"
	"time"

	internaljwt "quote-desk-backend/internal/jwt"

	"github.com/golang-jwt/jwt"
)

const (
	StaffSecret    = "staff-secret"
	CustomerSecret = "customer-secret"
)

// UseSecrets installs the test secrets for both roles.
func UseSecrets() {
	internaljwt.SetRoleSecret(internaljwt.RoleStaff, StaffSecret)
	internaljwt.SetRoleSecret(internaljwt.RoleCustomer, CustomerSecret)
}

// Token signs an HS256 token for email and appends the role suffix. A zero
// validUntil means DefaultTokenTTL from now. Roles other than staff and
// customer are signed with the staff secret and get no suffix.
func Token(t testing.TB, email string, role internaljwt.Role, validUntil int64) string {
	t.Helper()
	if validUntil == 0 {
		validUntil = time.Now().Add(internaljwt.DefaultTokenTTL).Unix()
	}
	secret := StaffSecret
	if role == internaljwt.RoleCustomer {
		secret = CustomerSecret
	}

	claims := jwt.MapClaims{
		"email": email,
		"exp":   validUntil,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed + role.Suffix()
}
