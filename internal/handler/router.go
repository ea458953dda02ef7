package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/chefgo/internal/authz"
	"github.com/hitoshi/chefgo/internal/middleware"
	"github.com/hitoshi/chefgo/internal/model"
)

// 会員登録とログインはセッション確立前のためCSRF検証の対象外にする。
// トークン検証は状態を変更しない。
var csrfExemptPaths = []string{"/auth/login", "/auth/register", "/api/tokens/verify"}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Sessions          middleware.SessionMaterializer
	Gate              *authz.Gate
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.StatusRecorder
	CORSAllowedOrigin string
	Cookies           middleware.CookieConfig

	// 認証
	AuthService AuthServiceInterface
	Registrar   RegistrarInterface
	AuthConfig  AuthHandlerConfig

	// ロール別領域
	Tokens         TokenServiceInterface
	NewOrderNumber func() string

	// 運用
	Logger         *slog.Logger
	Health         http.Handler
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → Logging → SecurityHeaders → CORS → Session → CSRF
//
// ロール別の領域にはさらにRequireRoleとユーザーごとのレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.Cookies.Secure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSessionMiddleware(deps.Sessions, deps.Cookies))
	r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
		CookieSecure: deps.Cookies.Secure,
		CookieDomain: deps.Cookies.Domain,
		ExemptPaths:  csrfExemptPaths,
	}))

	authHandler := NewAuthHandler(deps.AuthService, deps.Registrar, deps.AuthConfig)
	areaHandler := NewAreaHandler(deps.NewOrderNumber)
	tokenHandler := NewTokenHandler(deps.Tokens)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.LoginMiddleware())
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)
		r.Post("/session/refresh", authHandler.RefreshSession)
		r.Get("/csrf", middleware.NewCSRFTokenHandler(middleware.CSRFConfig{
			CookieSecure: deps.Cookies.Secure,
			CookieDomain: deps.Cookies.Domain,
		}).ServeHTTP)
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- ロール別のルート ---
	// ミドルウェアスタック: RateLimit(API) → RequireRole
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.APIMiddleware())

		r.Method(http.MethodGet, "/health", deps.Health)

		r.Route("/customer", func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Gate, model.RoleCustomer))
			r.Get("/me", areaHandler.Me)
			r.Post("/orders/number", areaHandler.OrderNumber)
		})

		r.Route("/rider", func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Gate, model.RoleRider))
			r.Get("/me", areaHandler.Me)
		})

		r.Route("/restaurant", func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Gate, model.RoleRestaurant))
			r.Get("/me", areaHandler.Me)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Gate, model.RoleAdmin))
			r.Get("/me", areaHandler.Me)
			r.Post("/tokens", tokenHandler.Issue)
		})

		// 検証は外部連携先からも呼ばれるためロールを問わない
		r.Post("/tokens/verify", tokenHandler.Verify)
	})

	return r
}
