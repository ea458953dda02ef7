package handler

import (
	"net/http"

	"github.com/hitoshi/chefgo/internal/middleware"
	"github.com/hitoshi/chefgo/internal/model"
)

// AreaHandler はロールごとの領域で共通に使うハンドラー。
// ロールの検証はRequireRoleで済んでいる前提で動く。
type AreaHandler struct {
	newOrderNumber func() string
}

// NewAreaHandler はAreaHandlerを生成する。
func NewAreaHandler(newOrderNumber func() string) *AreaHandler {
	return &AreaHandler{newOrderNumber: newOrderNumber}
}

type orderNumberResponse struct {
	OrderNumber string `json:"order_number"`
}

// Me はセッションビューを返す。
// GET /api/{role}/me
func (h *AreaHandler) Me(w http.ResponseWriter, r *http.Request) {
	v, ok := middleware.ViewFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// OrderNumber は新しい注文番号を採番する。一意性は注文の保存先で保証する。
// POST /api/customer/orders/number
func (h *AreaHandler) OrderNumber(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, orderNumberResponse{OrderNumber: h.newOrderNumber()})
}
