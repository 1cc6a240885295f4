package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
	"github.com/asc-solution/accounts/internal/core/service"
)

const (
	ServiceEngineersPath = "/accounts/service-engineers"
	CustomersPath        = "/accounts/customers"
	DashboardPath        = "/service-requests/dashboard"

	deleteFailedMessage = "Error occurred while deleting a user."
)

// AccountHandler serves the admin account screens, self-service registration
// and the caller's own profile.
type AccountHandler struct {
	accounts ports.AccountService
	auth     ports.AuthService
	sessions ports.SessionStore
	cookie   CookieOptions
	log      zerolog.Logger
}

func NewAccountHandler(accounts ports.AccountService, auth ports.AuthService, sessions ports.SessionStore, cookie CookieOptions, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, auth: auth, sessions: sessions, cookie: cookie, log: log}
}

type engineerForm struct {
	Username string `json:"username" form:"username" validate:"required,max=256"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password,omitempty" form:"password" validate:"required"`
	IsActive bool   `json:"is_active" form:"is_active"`
	IsEdit   bool   `json:"is_edit" form:"is_edit"`
}

type customerForm struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	IsActive bool   `json:"is_active" form:"is_active"`
}

type deleteForm struct {
	Email string `json:"email" form:"email"`
}

type registerForm struct {
	Username        string `json:"username" form:"username" validate:"required,max=256"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password,omitempty" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password,omitempty" form:"confirm_password" validate:"required,eqfield=Password"`
}

type profileForm struct {
	Username string `json:"username" form:"username" validate:"required,max=256"`
}

// accountListView is the payload of the list screens: the cached list, the
// form being edited and any errors from the last submission.
type accountListView struct {
	Accounts  []ports.AccountSummary `json:"accounts"`
	Form      any                    `json:"form"`
	Errors    []domain.FieldError    `json:"errors,omitempty"`
	Flash     string                 `json:"flash,omitempty"`
	CSRFToken string                 `json:"csrf_token,omitempty"`
}

type formView struct {
	Form      any                 `json:"form"`
	Errors    []domain.FieldError `json:"errors,omitempty"`
	CSRFToken string              `json:"csrf_token,omitempty"`
}

type profileView struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

// listScreen ties a list screen to its role and session cache entry.
type listScreen struct {
	role     domain.Role
	cacheKey string
}

var (
	engineersScreen = listScreen{role: domain.RoleEngineer, cacheKey: service.CacheServiceEngineers}
	customersScreen = listScreen{role: domain.RoleUser, cacheKey: service.CacheCustomers}
)

// ServiceEngineers lists engineer accounts with a blank form.
//
// @Summary      List service engineers
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  accountListView
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /accounts/service-engineers [get]
func (h *AccountHandler) ServiceEngineers(c echo.Context) error {
	return h.renderList(c, engineersScreen, engineerForm{IsActive: true})
}

// SaveServiceEngineer creates an engineer or, with is_edit set, updates one.
//
// @Summary      Create or edit a service engineer
// @Tags         accounts
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body  engineerForm  true  "Engineer form"
// @Success      303
// @Failure      422  {object}  accountListView
// @Router       /accounts/service-engineers [post]
func (h *AccountHandler) SaveServiceEngineer(c echo.Context) error {
	var form engineerForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&form); err != nil {
		return h.rerenderList(c, engineersScreen, form.redacted(), err)
	}

	ctx := c.Request().Context()
	var err error
	if form.IsEdit {
		_, err = h.accounts.UpdateEngineer(ctx, ports.UpdateEngineerInput{
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password,
			IsActive: form.IsActive,
		})
	} else {
		_, err = h.accounts.CreateAccount(ctx, ports.CreateAccountInput{
			Class:    ports.ClassEngineer,
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password,
			IsActive: form.IsActive,
		})
	}
	if err != nil {
		return h.rerenderList(c, engineersScreen, form.redacted(), err)
	}
	return c.Redirect(http.StatusSeeOther, ServiceEngineersPath)
}

// DeleteServiceEngineer removes an engineer. It always redirects back to the
// list; a failure is shown there once as a flash message.
//
// @Summary      Delete a service engineer
// @Tags         accounts
// @Accept       json,x-www-form-urlencoded
// @Param        body  body  deleteForm  true  "Account to delete"
// @Success      303
// @Router       /accounts/service-engineers/delete [post]
func (h *AccountHandler) DeleteServiceEngineer(c echo.Context) error {
	var form deleteForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	ctx := c.Request().Context()
	outcome, err := h.accounts.DeleteAccount(ctx, form.Email)
	if err != nil {
		h.log.Error().Err(err).Str("email", form.Email).Msg("delete service engineer failed")
		if cache, cerr := h.cache(c); cerr == nil {
			if ferr := cache.Flash(ctx, deleteFailedMessage); ferr != nil {
				h.log.Warn().Err(ferr).Msg("failed to store flash message")
			}
		}
	} else {
		h.log.Debug().Str("email", form.Email).Str("outcome", string(outcome)).Msg("delete service engineer")
	}
	return c.Redirect(http.StatusSeeOther, ServiceEngineersPath)
}

// Customers lists customer accounts with a blank form.
//
// @Summary      List customers
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  accountListView
// @Router       /accounts/customers [get]
func (h *AccountHandler) Customers(c echo.Context) error {
	return h.renderList(c, customersScreen, customerForm{})
}

// SaveCustomer changes the active flag of a customer.
//
// @Summary      Activate or deactivate a customer
// @Tags         accounts
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body  customerForm  true  "Customer form"
// @Success      303
// @Failure      422  {object}  accountListView
// @Router       /accounts/customers [post]
func (h *AccountHandler) SaveCustomer(c echo.Context) error {
	var form customerForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&form); err != nil {
		return h.rerenderList(c, customersScreen, form, err)
	}

	_, err := h.accounts.SetCustomerActive(c.Request().Context(), ports.SetActiveInput{
		Email:    form.Email,
		IsActive: form.IsActive,
	})
	if err != nil {
		return h.rerenderList(c, customersScreen, form, err)
	}
	return c.Redirect(http.StatusSeeOther, CustomersPath)
}

// RegisterForm serves an empty registration form with the CSRF token a
// visitor needs to submit it.
//
// @Summary      Registration form
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  formView
// @Router       /accounts/register [get]
func (h *AccountHandler) RegisterForm(c echo.Context) error {
	return c.JSON(http.StatusOK, formView{Form: registerForm{}, CSRFToken: csrfToken(c)})
}

// Register creates an active customer account for a visitor.
//
// @Summary      Register as a customer
// @Tags         accounts
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      registerForm  true  "Registration form"
// @Success      201   {object}  ports.AccountSummary
// @Failure      422   {object}  formView
// @Router       /accounts/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&form); err != nil {
		return h.rerenderForm(c, form.redacted(), err)
	}

	account, err := h.accounts.CreateAccount(c.Request().Context(), ports.CreateAccountInput{
		Class:    ports.ClassCustomer,
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		IsActive: true,
	})
	if err != nil {
		return h.rerenderForm(c, form.redacted(), err)
	}

	return c.JSON(http.StatusCreated, ports.AccountSummary{
		ID:             account.ID,
		Username:       account.Username,
		Email:          account.Email,
		EmailConfirmed: account.EmailConfirmed,
		IsActive:       true,
	})
}

// Profile returns the caller's username.
//
// @Summary      Current profile
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  profileView
// @Router       /accounts/profile [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileView{Username: p.Username, Email: p.Email, CSRFToken: csrfToken(c)})
}

// SaveProfile changes the caller's username and signs them in again so the
// new name shows up in their token.
//
// @Summary      Update profile
// @Tags         accounts
// @Accept       json,x-www-form-urlencoded
// @Param        body  body  profileForm  true  "Profile form"
// @Success      303
// @Failure      422  {object}  formView
// @Router       /accounts/profile [post]
func (h *AccountHandler) SaveProfile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var form profileForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&form); err != nil {
		return h.rerenderForm(c, form, err)
	}

	ctx := c.Request().Context()
	account, err := h.accounts.UpdateProfile(ctx, p.Email, form.Username)
	if err != nil {
		return h.rerenderForm(c, form, err)
	}

	token, _, err := h.auth.Refresh(ctx, account)
	if err != nil {
		return err
	}
	setAccessCookie(c, h.cookie, token)
	return c.Redirect(http.StatusSeeOther, DashboardPath)
}

// renderList loads the list for screen, caches it for the follow-up POST and
// consumes any pending flash message.
func (h *AccountHandler) renderList(c echo.Context, screen listScreen, blank any) error {
	ctx := c.Request().Context()
	cache, err := h.cache(c)
	if err != nil {
		return err
	}

	list, err := h.accounts.ListByRole(ctx, screen.role)
	if err != nil {
		return err
	}
	if err := cache.Put(ctx, screen.cacheKey, list); err != nil {
		h.log.Warn().Err(err).Str("cache", screen.cacheKey).Msg("failed to cache account list")
	}

	return c.JSON(http.StatusOK, accountListView{
		Accounts:  list,
		Form:      blank,
		Flash:     cache.TakeFlash(ctx),
		CSRFToken: csrfToken(c),
	})
}

// rerenderList answers a rejected submission with the cached list, the
// submitted form and its errors. Errors that are not about the submission
// are passed on to the central error handler.
func (h *AccountHandler) rerenderList(c echo.Context, screen listScreen, form any, cause error) error {
	fields, ok := submissionErrors(cause)
	if !ok {
		return cause
	}

	ctx := c.Request().Context()
	cache, err := h.cache(c)
	if err != nil {
		return err
	}
	list, err := h.cachedList(ctx, cache, screen)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusUnprocessableEntity, accountListView{
		Accounts:  list,
		Form:      form,
		Errors:    fields,
		CSRFToken: csrfToken(c),
	})
}

func (h *AccountHandler) rerenderForm(c echo.Context, form any, cause error) error {
	fields, ok := submissionErrors(cause)
	if !ok {
		return cause
	}
	return c.JSON(http.StatusUnprocessableEntity, formView{Form: form, Errors: fields, CSRFToken: csrfToken(c)})
}

// cachedList returns the list stored by the last GET, re-deriving and
// re-caching it when the entry is missing or unreadable.
func (h *AccountHandler) cachedList(ctx context.Context, cache *service.RequestCache, screen listScreen) ([]ports.AccountSummary, error) {
	var list []ports.AccountSummary
	if cache.Get(ctx, screen.cacheKey, &list) {
		return list, nil
	}

	list, err := h.accounts.ListByRole(ctx, screen.role)
	if err != nil {
		return nil, err
	}
	if err := cache.Put(ctx, screen.cacheKey, list); err != nil {
		h.log.Warn().Err(err).Str("cache", screen.cacheKey).Msg("failed to cache account list")
	}
	return list, nil
}

func (h *AccountHandler) cache(c echo.Context) (*service.RequestCache, error) {
	sid, err := ctxSession(c)
	if err != nil {
		return nil, err
	}
	return service.NewRequestCache(h.sessions, sid, h.log), nil
}

// submissionErrors turns the errors a form submission can cause into field
// errors. It reports false for anything else.
// submissionErrors maps a failed submission to form errors. A partial failure
// is checked first: the account already exists, so field errors from the step
// that failed must not invite a resubmission.
func submissionErrors(err error) ([]domain.FieldError, bool) {
	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		return []domain.FieldError{{Message: "The account was saved but could not be fully set up (" + partial.Step + "). Review it before retrying."}}, true
	}
	if fields := domain.FieldErrors(err); len(fields) > 0 {
		return fields, true
	}

	switch {
	case errors.Is(err, domain.ErrConflict):
		return []domain.FieldError{{Message: err.Error()}}, true
	case errors.Is(err, domain.ErrInvalidResetToken):
		return []domain.FieldError{{Field: "password", Message: "password could not be changed, try again"}}, true
	}
	return nil, false
}

func (f engineerForm) redacted() engineerForm {
	f.Password = ""
	return f
}

func (f registerForm) redacted() registerForm {
	f.Password = ""
	f.ConfirmPassword = ""
	return f
}
