// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/chefgo/internal/auth"
	"github.com/hitoshi/chefgo/internal/middleware"
	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/session"
)

// AuthServiceInterface は認証ハンドラーが必要とするセッション操作。auth.Serviceが実装する。
type AuthServiceInterface interface {
	Login(ctx context.Context, identifier, secret string) (*auth.LoginResult, error)
	StartSession(ctx context.Context, identity *model.Identity) (*auth.LoginResult, error)
	Refresh(ctx context.Context, v *session.View) (*auth.LoginResult, error)
	Logout(ctx context.Context, v *session.View) error
}

// RegistrarInterface は会員登録に必要な操作。auth.Registrarが実装する。
type RegistrarInterface interface {
	RegisterCustomer(ctx context.Context, email, password, displayName string) (*model.Identity, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	Cookies       middleware.CookieConfig
	SessionMaxAge time.Duration
}

// AuthHandler はログイン、会員登録、セッション関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	registrar RegistrarInterface
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, registrar RegistrarInterface, config AuthHandlerConfig) *AuthHandler {
	if config.SessionMaxAge <= 0 {
		config.SessionMaxAge = session.DefaultMaxAge
	}
	return &AuthHandler{
		service:   service,
		registrar: registrar,
		config:    config,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// sessionResponse はセッション発行時のレスポンス。
// Cookieを使わないクライアント向けにトークンも返す。
type sessionResponse struct {
	Token   string        `json:"token"`
	Session *session.View `json:"session"`
}

// Login は資格情報を検証してセッションを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := parseLoginRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
			return
		}
		internalError(w, r, "login failed", err)
		return
	}

	h.writeSession(w, http.StatusOK, result)
}

// parseLoginRequest はJSONまたはフォーム形式のログインリクエストを読み取る。
func parseLoginRequest(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := r.ParseForm(); err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, newMalformedBodyError())
			return req, false
		}
		req.Identifier = r.PostFormValue("identifier")
		req.Password = r.PostFormValue("password")
		return req, true
	}

	return req, decodeJSON(w, r, &req)
}

// Register は注文者アカウントを作成し、そのままログインさせる。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.registrar.RegisterCustomer(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidInputError(strings.TrimPrefix(err.Error(), auth.ErrInvalidInput.Error()+": ")))
		case errors.Is(err, auth.ErrEmailTaken):
			middleware.WriteErrorResponse(w, http.StatusConflict, model.NewEmailTakenError())
		default:
			internalError(w, r, "registration failed", err)
		}
		return
	}

	result, err := h.service.StartSession(r.Context(), identity)
	if err != nil {
		internalError(w, r, "failed to start session after registration", err)
		return
	}

	h.writeSession(w, http.StatusCreated, result)
}

// Logout はセッションを失効させてCookieを削除する。
// セッションがなくても成功として扱う。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if v, ok := middleware.ViewFromContext(r.Context()); ok {
		if err := h.service.Logout(r.Context(), v); err != nil {
			// 失効に失敗してもCookieはクリアする
			slog.ErrorContext(r.Context(), "failed to logout",
				slog.String("user_id", v.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	middleware.ClearSessionCookie(w, h.config.Cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Session は現在のセッションビューを返す。
// 未認証の場合はエラーではなく空のオブジェクトを返す。
// GET /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.ViewFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// RefreshSession は有効なセッションと同じ内容で新しいトークンを発行する。
// POST /auth/session/refresh
func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.ViewFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	result, err := h.service.Refresh(r.Context(), v)
	if err != nil {
		internalError(w, r, "session refresh failed", err)
		return
	}

	h.writeSession(w, http.StatusOK, result)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, statusCode int, result *auth.LoginResult) {
	middleware.SetSessionCookie(w, result.Token, h.config.SessionMaxAge, h.config.Cookies)
	writeJSON(w, statusCode, sessionResponse{Token: result.Token, Session: result.View})
}
