package jwt_test

import (
	"errors"
	"testing"
	"time"

	internaljwt "quote-desk-backend/internal/jwt"
	"quote-desk-backend/internal/jwt/jwttest"
)

func TestParseToken(t *testing.T) {
	jwttest.UseSecrets()
	token := jwttest.Token(t, "admin1@desk.io", internaljwt.RoleStaff, 0)
	if token[len(token)-1:] != "1" {
		t.Fatalf("staff token must end with role char, got %q", token)
	}

	subject, err := internaljwt.ParseToken(token, internaljwt.RoleStaff)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if subject.Email != "admin1@desk.io" || subject.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("unexpected subject %+v", subject)
	}
}

func TestParseTokenRejectsOtherRole(t *testing.T) {
	jwttest.UseSecrets()
	token := jwttest.Token(t, "a@x.com", internaljwt.RoleCustomer, 0)
	if _, err := internaljwt.ParseToken(token, internaljwt.RoleStaff); !errors.Is(err, internaljwt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	// right suffix, wrong secret
	forged := token[:len(token)-1] + internaljwt.RoleStaff.Suffix()
	if _, err := internaljwt.ParseToken(forged, internaljwt.RoleStaff); !errors.Is(err, internaljwt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	jwttest.UseSecrets()
	token := jwttest.Token(t, "a@x.com", internaljwt.RoleCustomer, time.Now().Add(-time.Minute).Unix())
	if _, err := internaljwt.ParseToken(token, internaljwt.RoleCustomer); !errors.Is(err, internaljwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseTokenErrors(t *testing.T) {
	jwttest.UseSecrets()
	if _, err := internaljwt.ParseToken("", internaljwt.RoleStaff); !errors.Is(err, internaljwt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := internaljwt.ParseToken(jwttest.Token(t, "a@x.com", internaljwt.Role(9), 0), internaljwt.Role(9)); !errors.Is(err, internaljwt.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := internaljwt.ParseToken(jwttest.Token(t, " ", internaljwt.RoleStaff, 0), internaljwt.RoleStaff); !errors.Is(err, internaljwt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if internaljwt.Role(9).Suffix() != "" {
		t.Fatal("unknown roles have no suffix")
	}
}
