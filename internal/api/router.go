package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/asc-solution/accounts/docs"
	"github.com/asc-solution/accounts/internal/api/handler"
	"github.com/asc-solution/accounts/internal/api/middleware"
	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Accounts   ports.AccountService
	Auth       ports.AuthService
	Navigation ports.NavigationCacheOperations
	Sessions   ports.SessionStore
	Readiness  map[string]handler.ReadinessCheck
	Log        zerolog.Logger

	JWTSecret  string
	TokenTTL   time.Duration
	SessionTTL time.Duration
	// SecureCookies marks every cookie Secure; off in development.
	SecureCookies bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(middleware.Metrics())

	// --- Dependencies ---
	cookie := handler.CookieOptions{TTL: deps.TokenTTL, Secure: deps.SecureCookies}
	authHandler := handler.NewAuthHandler(deps.Auth, cookie)
	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Auth, deps.Sessions, cookie, deps.Log)
	navigationHandler := handler.NewNavigationHandler(deps.Navigation)

	authMiddleware := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	sessionMiddleware := middleware.Session(middleware.SessionConfig{MaxAge: deps.SessionTTL, Secure: deps.SecureCookies})
	csrfMiddleware := echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   deps.SecureCookies,
		CookieSameSite: http.SameSiteLaxMode,
	})

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Account routes ---
	accounts := e.Group("/accounts", sessionMiddleware, csrfMiddleware)
	accounts.GET("/register", accountHandler.RegisterForm)
	accounts.POST("/register", accountHandler.Register)

	accounts.GET("/service-engineers", accountHandler.ServiceEngineers, authMiddleware, adminOnly)
	accounts.POST("/service-engineers", accountHandler.SaveServiceEngineer, authMiddleware, adminOnly)
	accounts.POST("/service-engineers/delete", accountHandler.DeleteServiceEngineer, authMiddleware, adminOnly)

	accounts.GET("/customers", accountHandler.Customers, authMiddleware)
	accounts.POST("/customers", accountHandler.SaveCustomer, authMiddleware)

	accounts.GET("/profile", accountHandler.Profile, authMiddleware)
	accounts.POST("/profile", accountHandler.SaveProfile, authMiddleware)

	// --- Navigation routes ---
	navigation := e.Group("/navigation", sessionMiddleware, csrfMiddleware, authMiddleware)
	navigation.GET("", navigationHandler.Menu)
	navigation.POST("/invalidate", navigationHandler.Invalidate, adminOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
