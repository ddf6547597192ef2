package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/legacieweb/payme/utils"
)

func signToken(t *testing.T, secret, role string, expiry time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": role,
		"exp":  now.Add(expiry).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAdminAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	var gotClaims jwt.MapClaims
	handler := AdminAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = r.Context().Value(utils.AdminClaimsKey).(jwt.MapClaims)
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, "test-secret", "admin", -time.Minute), http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "admin", time.Hour), http.StatusUnauthorized},
		{"wrong role", "Bearer " + signToken(t, "test-secret", "viewer", time.Hour), http.StatusForbidden},
		{"valid", "Bearer " + signToken(t, "test-secret", "admin", time.Hour), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/api/admin/payments", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantStatus == http.StatusOK {
				if gotClaims == nil || gotClaims["sub"] != "admin" {
					t.Fatalf("claims not placed in context: %v", gotClaims)
				}
			} else if gotClaims != nil {
				t.Fatal("handler must not run on rejected requests")
			}
		})
	}
}
