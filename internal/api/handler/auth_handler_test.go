package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/asc-solution/accounts/internal/api/middleware"
	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

func accessCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.AccessTokenCookie {
			return ck
		}
	}
	t.Fatalf("expected %s cookie", middleware.AccessTokenCookie)
	return nil
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *ports.Principal, error) {
			if email != "eng@asc.local" || password != "Secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "signed-token", &ports.Principal{AccountID: "7", Username: "eng", Email: email, Roles: []domain.Role{domain.RoleEngineer}}, nil
		},
	}
	h := NewAuthHandler(stub, CookieOptions{TTL: time.Hour})

	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"email":"eng@asc.local","password":"Secret1"}`, nil)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed-token" {
		t.Fatalf("unexpected token %q", resp.Token)
	}
	if resp.User == nil || resp.User.ID != "7" || len(resp.User.Roles) != 1 || resp.User.Roles[0] != domain.RoleEngineer {
		t.Fatalf("unexpected user: %+v", resp.User)
	}

	ck := accessCookie(t, rec.Result())
	if ck.Value != "signed-token" || !ck.HttpOnly || ck.MaxAge != 3600 {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "missing password", body: `{"email":"eng@asc.local"}`, wantCode: http.StatusBadRequest},
		{name: "malformed email", body: `{"email":"nope","password":"x"}`, wantCode: http.StatusBadRequest},
		{name: "invalid credentials", body: `{"email":"eng@asc.local","password":"bad"}`, err: domain.ErrInvalidCredentials, wantCode: http.StatusUnauthorized},
		{name: "inactive account", body: `{"email":"eng@asc.local","password":"Secret1"}`, err: domain.ErrAccountInactive, wantCode: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{
				loginFn: func(context.Context, string, string) (string, *ports.Principal, error) {
					return "", nil, tc.err
				},
			}
			h := NewAuthHandler(stub, CookieOptions{TTL: time.Hour})

			c, rec := newTestContext(http.MethodPost, "/auth/login", tc.body, nil)
			if err := h.Login(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			for _, ck := range rec.Result().Cookies() {
				if ck.Name == middleware.AccessTokenCookie {
					t.Fatal("no cookie expected on failure")
				}
			}
		})
	}
}

func TestAuthHandler_Login_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.Join(domain.ErrStore, errors.New("timeout"))
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *ports.Principal, error) {
			return "", nil, storeErr
		},
	}
	h := NewAuthHandler(stub, CookieOptions{})

	c, _ := newTestContext(http.MethodPost, "/auth/login", `{"email":"eng@asc.local","password":"Secret1"}`, nil)
	if err := h.Login(c); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, CookieOptions{TTL: time.Hour})

	c, rec := newTestContext(http.MethodPost, "/auth/logout", "", adminPrincipal())
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	ck := accessCookie(t, rec.Result())
	if ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", ck)
	}
}
