package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/chefgo/internal/session"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "chefgo_session"

// SessionMaterializer はセッションの復元と再発行に必要なインターフェース。
// session.Managerが実装する。
type SessionMaterializer interface {
	Materialize(ctx context.Context, raw string) (*session.View, bool)
	RefreshDue(v *session.View) bool
	Refresh(v *session.View) (string, *session.View, error)
	MaxAge() time.Duration
}

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Secure bool
	Domain string
}

// SetSessionCookie はセッショントークンをHTTP Only Cookieに設定する。
func SetSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieToken はセッションCookieの値を返す。
func cookieToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// bearerToken はAuthorization: Bearerヘッダーのトークンを返す。
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// NewSessionMiddleware はトークンからセッションを復元し、状態をリクエストコンテキストに注入する。
// CookieとBearerヘッダーの両方がある場合はCookieを優先し、Cookieが無効ならBearerで復元する。
// 復元できない場合も拒否はせず、未認証として後段に渡す。アクセス可否はRequireRoleが判定する。
// Cookieのセッションが再発行の時期に達していれば、新しいトークンでCookieを更新する。
func NewSessionMiddleware(sessions SessionMaterializer, cookies CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, bearer := cookieToken(r), bearerToken(r)
			if cookie == "" && bearer == "" {
				ctx := contextWithSession(r.Context(), &sessionContext{state: session.Unauthenticated()})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Cookieを優先し、Cookieが無効ならBearerヘッダーを試す
			var view *session.View
			ok, fromCookie := false, false
			if cookie != "" {
				if view, ok = sessions.Materialize(r.Context(), cookie); ok {
					fromCookie = true
				} else {
					ClearSessionCookie(w, cookies)
				}
			}
			if !ok && bearer != "" {
				view, ok = sessions.Materialize(r.Context(), bearer)
			}
			if !ok {
				ctx := contextWithSession(r.Context(), &sessionContext{state: session.Unauthenticated(), rejected: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if fromCookie && sessions.RefreshDue(view) {
				token, fresh, err := sessions.Refresh(view)
				if err != nil {
					slog.Warn("failed to refresh session",
						slog.String("user_id", view.UserID),
						slog.String("error", err.Error()),
					)
				} else {
					SetSessionCookie(w, token, sessions.MaxAge(), cookies)
					view = fresh
				}
			}

			ctx := contextWithSession(r.Context(), &sessionContext{state: session.Authenticated(view)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
