package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	internaljwt "quote-desk-backend/internal/jwt"
	"quote-desk-backend/internal/jwt/jwttest"
)

func captureIdentity(got *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestValidateStaffJWT(t *testing.T) {
	jwttest.UseSecrets()

	admin := jwttest.Token(t, "admin1", internaljwt.RoleStaff, 0)
	stranger := jwttest.Token(t, "intruder", internaljwt.RoleStaff, 0)
	customer := jwttest.Token(t, "a@x.com", internaljwt.RoleCustomer, 0)
	expired := jwttest.Token(t, "admin1", internaljwt.RoleStaff, time.Now().Add(-time.Minute).Unix())

	cases := []struct {
		name   string
		header string
		query  string
		status int
		who    string
	}{
		{"admin", "Bearer " + admin, "", http.StatusNoContent, "admin1"},
		{"query token", "", admin, http.StatusNoContent, "admin1"},
		{"not an admin", "Bearer " + stranger, "", http.StatusForbidden, ""},
		{"customer token", "Bearer " + customer, "", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized, ""},
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"malformed header", "Token " + admin, "", http.StatusUnauthorized, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var who string
			handler := ValidateStaffJWT([]string{"admin1"})(captureIdentity(&who))

			target := "/dashboard"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tc.status || who != tc.who {
				t.Fatalf("status %d identity %q, want %d %q", rec.Code, who, tc.status, tc.who)
			}
		})
	}
}

func TestValidateCustomerJWT(t *testing.T) {
	jwttest.UseSecrets()
	token := jwttest.Token(t, "a@x.com", internaljwt.RoleCustomer, 0)

	var who string
	handler := ValidateCustomerJWT()(captureIdentity(&who))
	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNoContent || who != "a@x.com" {
		t.Fatalf("status %d identity %q", rec.Code, who)
	}
}

func TestCORS(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{"https://desk.example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
	}
	called := false
	handler := Chain(func(w http.ResponseWriter, r *http.Request) { called = true }, CORS(cfg))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden || called {
		t.Fatalf("preflight from unknown origin: %d, called=%v", rec.Code, called)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://desk.example.com")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if !called || rec.Header().Get("Access-Control-Allow-Origin") != "https://desk.example.com" {
		t.Fatalf("allowed origin not echoed: %v", rec.Header())
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "GET, POST" {
		t.Fatalf("methods header %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}
