package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/chefgo/internal/authz"
	"github.com/hitoshi/chefgo/internal/model"
)

// pendingRetryAfter はセッション確定前に返すRetry-Afterの秒数。
const pendingRetryAfter = "1"

// RequireRole はroleを要求するロールゲートのミドルウェアを返す。
// NewSessionMiddlewareの後に配置する。
// APIリクエストには401/403のJSONを、画面遷移のリクエストには303リダイレクトを返す。
func RequireRole(gate *authz.Gate, role model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := gate.Authorize(StateFromContext(r.Context()), role)

			switch d.Kind {
			case authz.DecisionAllow:
				next.ServeHTTP(w, r)
			case authz.DecisionPending:
				w.Header().Set("Retry-After", pendingRetryAfter)
				WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewSessionPendingError())
			default:
				writeRedirectDecision(w, r, gate, d, role)
			}
		})
	}
}

func writeRedirectDecision(w http.ResponseWriter, r *http.Request, gate *authz.Gate, d authz.Decision, role model.Role) {
	if wantsJSON(r) {
		switch {
		case d.Reason == model.ErrCodeInsufficientRole:
			WriteErrorResponse(w, http.StatusForbidden, model.NewInsufficientRoleError(role))
		case sessionRejected(r.Context()):
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionExpiredError())
		default:
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		}
		return
	}

	target := d.Target
	if target == gate.LoginPath() {
		target += "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// wantsJSON はAPIクライアントからのリクエストかを判定する。
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
