package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/api/middleware"
	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

type stubAccountService struct {
	createFn     func(ctx context.Context, in ports.CreateAccountInput) (*domain.Account, error)
	updateFn     func(ctx context.Context, in ports.UpdateEngineerInput) (*domain.Account, error)
	setActiveFn  func(ctx context.Context, in ports.SetActiveInput) (*domain.Account, error)
	deleteFn     func(ctx context.Context, email string) (ports.DeleteOutcome, error)
	profileFn    func(ctx context.Context, email, username string) (*domain.Account, error)
	listFn       func(ctx context.Context, role domain.Role) ([]ports.AccountSummary, error)
	listCalls    int
	createCalled bool
}

func (s *stubAccountService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (*domain.Account, error) {
	s.createCalled = true
	return s.createFn(ctx, in)
}

func (s *stubAccountService) UpdateEngineer(ctx context.Context, in ports.UpdateEngineerInput) (*domain.Account, error) {
	return s.updateFn(ctx, in)
}

func (s *stubAccountService) SetCustomerActive(ctx context.Context, in ports.SetActiveInput) (*domain.Account, error) {
	return s.setActiveFn(ctx, in)
}

func (s *stubAccountService) DeleteAccount(ctx context.Context, email string) (ports.DeleteOutcome, error) {
	return s.deleteFn(ctx, email)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, email, username string) (*domain.Account, error) {
	return s.profileFn(ctx, email, username)
}

func (s *stubAccountService) ListByRole(ctx context.Context, role domain.Role) ([]ports.AccountSummary, error) {
	s.listCalls++
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, role)
}

func (s *stubAccountService) State(context.Context, string) (domain.AccountState, error) {
	return domain.StateNonExistent, nil
}

type stubAuthService struct {
	loginFn   func(ctx context.Context, email, password string) (string, *ports.Principal, error)
	refreshFn func(ctx context.Context, account *domain.Account) (string, *ports.Principal, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *ports.Principal, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, account *domain.Account) (string, *ports.Principal, error) {
	return s.refreshFn(ctx, account)
}

const testSessionID = "6f1c0a55-3a0e-4a8e-9d61-3f5b6a1d2c77"

// newTestContext builds an echo context the way the router would leave it:
// validator installed, optional JSON body, session ID and principal set.
func newTestContext(method, target, body string, principal *ports.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.SessionIDKey, testSessionID)
	if principal != nil {
		c.Set(middleware.PrincipalKey, *principal)
	}
	return c, rec
}

func adminPrincipal() *ports.Principal {
	return &ports.Principal{
		AccountID: "1",
		Username:  "admin",
		Email:     "admin@asc.local",
		Roles:     []domain.Role{domain.RoleAdmin},
	}
}
