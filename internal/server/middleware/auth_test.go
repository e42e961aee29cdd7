package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campustribe/tribemarket/internal/domain"
)

const testSecret = "unit-test-secret"

func authedHandler(t *testing.T, got *domain.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			t.Error("identity missing from context in protected handler")
		}
		*got = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthAcceptsValidToken(t *testing.T) {
	want := domain.Identity{UserID: "user-1", Role: domain.RolePlug, StoreID: "store-1"}
	token, err := SignToken(testSecret, want, time.Minute)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}

	var got domain.Identity
	h := Auth(testSecret, nil)(authedHandler(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestAuthRejections(t *testing.T) {
	expired, err := SignToken(testSecret, domain.Identity{UserID: "u", Role: domain.RoleCitizen}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongKey, err := SignToken("other-secret", domain.Identity{UserID: "u", Role: domain.RoleCitizen}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	badRole, err := SignToken(testSecret, domain.Identity{UserID: "u", Role: "superuser"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic dXNlcjpwdw=="},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong signing key", header: "Bearer " + wrongKey},
		{name: "unknown role", header: "Bearer " + badRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := Auth(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("protected handler ran despite rejected token")
			}
			if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
				t.Errorf("Content-Type = %q, want JSON", ct)
			}
		})
	}
}

func TestAuthSkipsPublicRoutes(t *testing.T) {
	skip := func(r *http.Request) bool { return r.URL.Path == "/api/health" }

	called := false
	h := Auth(testSecret, skip)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := IdentityFrom(r.Context()); ok {
			t.Error("skipped request should carry no identity")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("skipped route did not reach handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
