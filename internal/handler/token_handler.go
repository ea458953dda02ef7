package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/chefgo/internal/middleware"
	"github.com/hitoshi/chefgo/internal/model"
)

// maxTokenTTL は管理者が指定できる有効期間の上限。
const maxTokenTTL = 30 * 24 * time.Hour

// TokenServiceInterface は汎用トークンの署名と検証。security.TokenSignerが実装する。
type TokenServiceInterface interface {
	Sign(payload map[string]any) (string, error)
	SignWithTTL(payload map[string]any, ttl time.Duration) (string, error)
	Verify(token string) (map[string]any, bool)
}

// TokenHandler は汎用トークンの発行と検証を行うハンドラー。
type TokenHandler struct {
	tokens TokenServiceInterface
}

// NewTokenHandler はTokenHandlerを生成する。
func NewTokenHandler(tokens TokenServiceInterface) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

type issueTokenRequest struct {
	Payload    map[string]any `json:"payload"`
	TTLSeconds int64          `json:"ttl_seconds,omitempty"`
}

type issueTokenResponse struct {
	Token string `json:"token"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Valid   bool           `json:"valid"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Issue はペイロードに署名したトークンを発行する。ADMINのみ。
// POST /api/admin/tokens
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Payload) == 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("payloadが空です"))
		return
	}

	var (
		token string
		err   error
	)
	switch {
	case req.TTLSeconds < 0:
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("ttl_secondsは正の値で指定してください"))
		return
	case req.TTLSeconds == 0:
		token, err = h.tokens.Sign(req.Payload)
	default:
		ttl := time.Duration(req.TTLSeconds) * time.Second
		if ttl > maxTokenTTL {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("ttl_secondsが上限を超えています"))
			return
		}
		token, err = h.tokens.SignWithTTL(req.Payload, ttl)
	}
	if err != nil {
		internalError(w, r, "failed to sign token", err)
		return
	}

	if userID, err := middleware.UserIDFromContext(r.Context()); err == nil {
		slog.InfoContext(r.Context(), "generic token issued",
			slog.String("user_id", userID),
			slog.Int("claims", len(req.Payload)),
		)
	}

	writeJSON(w, http.StatusCreated, issueTokenResponse{Token: token})
}

// Verify はトークンを検証する。無効なトークンでも200で valid=false を返す。
// POST /api/tokens/verify
func (h *TokenHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payload, ok := h.tokens.Verify(req.Token)
	writeJSON(w, http.StatusOK, verifyTokenResponse{Valid: ok, Payload: payload})
}
