package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/chefgo/internal/auth"
	"github.com/hitoshi/chefgo/internal/authz"
	"github.com/hitoshi/chefgo/internal/config"
	"github.com/hitoshi/chefgo/internal/handler"
	"github.com/hitoshi/chefgo/internal/metrics"
	"github.com/hitoshi/chefgo/internal/middleware"
	"github.com/hitoshi/chefgo/internal/repository"
	"github.com/hitoshi/chefgo/internal/security"
	"github.com/hitoshi/chefgo/internal/session"
	"github.com/hitoshi/chefgo/internal/worker/cleanup"
)

// sessionIssuer はセッショントークンのiss。
const sessionIssuer = "chefgo"

// redisPingTimeout は起動時のRedis疎通確認のタイムアウト。
const redisPingTimeout = 5 * time.Second

// revocationBackend は失効ストアとその終了処理。
// sweeperはメモリストアの場合のみ設定される。
type revocationBackend struct {
	store   session.RevocationStore
	sweeper *cleanup.RevocationSweepJob
	close   func() error
}

// newRevocationStore はREDIS_URLが設定されていればRedis、なければメモリの失効ストアを返す。
// Redisに接続できない場合は起動を失敗させる。
func newRevocationStore(ctx context.Context, redisURL string) (*revocationBackend, error) {
	if redisURL == "" {
		slog.Warn("REDIS_URL is not set; revoked sessions are kept in memory and lost on restart")
		store := repository.NewMemoryRevocationStore()
		return &revocationBackend{
			store:   store,
			sweeper: cleanup.NewRevocationSweepJob(store, slog.Default()),
			close:   func() error { return nil },
		}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	store := repository.NewRedisRevocationStore(client, "")

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established")
	return &revocationBackend{store: store, close: client.Close}, nil
}

// tokenKeyLabel は汎用トークンの鍵をAUTH_SECRETから導出するときのラベル。
const tokenKeyLabel = "chefgo/generic-token/v1"

// tokenSigningKey は汎用トークンの署名鍵を返す。
// TOKEN_SECRETが未設定またはAUTH_SECRETと同じ値なら、セッションの鍵とは別の鍵を導出する。
func tokenSigningKey(cfg *config.Config) ([]byte, error) {
	if cfg.TokenSecret != "" && cfg.TokenSecret != cfg.AuthSecret {
		return []byte(cfg.TokenSecret), nil
	}
	return security.DeriveKey(cfg.AuthSecret, tokenKeyLabel)
}

// server はserveモードで組み立てた依存関係。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// buildServer は設定とインフラの接続からHTTPハンドラーを組み立てる。
func buildServer(cfg *config.Config, db *sql.DB, revocations session.RevocationStore, reg *prometheus.Registry) (*server, error) {
	collector := metrics.NewCollector(reg)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// セッション
	encoder, err := session.NewJWTEncoder([]byte(cfg.AuthSecret), sessionIssuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigurationMissing, err)
	}
	manager, err := session.NewManager(encoder, revocations, collector, session.ManagerConfig{
		MaxAge:          cfg.SessionMaxAge,
		RefreshInterval: cfg.SessionRefreshInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	tokenKey, err := tokenSigningKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigurationMissing, err)
	}
	signer, err := security.NewTokenSigner(tokenKey, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfigurationMissing, err)
	}

	// 認証
	userRepo := repository.NewPostgresUserRepo(db)
	verifier, err := auth.NewVerifier(userRepo, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential verifier: %w", err)
	}
	authService := auth.NewService(verifier, manager)
	registrar := auth.NewRegistrar(userRepo, security.NewNameSanitizer())

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	cookies := middleware.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}
	rateLimiter := middleware.NewRateLimiter(middleware.LoginRateLimiterConfig(cfg.RateLimitLogin))

	router := handler.NewRouter(&handler.RouterDeps{
		Sessions: manager,
		Gate: authz.NewGate(authz.Config{
			LoginPath:        cfg.LoginPath,
			UnauthorizedPath: cfg.UnauthorizedPath,
		}, collector),
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Cookies:           cookies,

		AuthService: authService,
		Registrar:   registrar,
		AuthConfig: handler.AuthHandlerConfig{
			Cookies:       cookies,
			SessionMaxAge: manager.MaxAge(),
		},

		Tokens:         signer,
		NewOrderNumber: security.GenerateOrderNumber,

		Logger:         slog.Default(),
		Health:         handler.NewHealthHandler(db, cfg.SecretPresence(), location),
		MetricsHandler: metrics.Handler(reg),
	})

	return &server{handler: router, rateLimiter: rateLimiter}, nil
}
