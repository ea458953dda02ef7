package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/chefgo/internal/model"
)

func TestAreaHandler_Me(t *testing.T) {
	h := NewAreaHandler(func() string { return "" })

	w := httptest.NewRecorder()
	h.Me(w, withSession(httptest.NewRequest(http.MethodGet, "/api/rider/me", nil), testView(model.RoleRider)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := decodeBody[map[string]any](t, w); body["user_id"] != "user-1" {
		t.Errorf("body = %v", body)
	}
}

func TestAreaHandler_Me_WithoutSession(t *testing.T) {
	h := NewAreaHandler(func() string { return "" })

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/rider/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAreaHandler_OrderNumber(t *testing.T) {
	h := NewAreaHandler(func() string { return "CGABC123XYZ" })

	w := httptest.NewRecorder()
	h.OrderNumber(w, httptest.NewRequest(http.MethodPost, "/api/customer/orders/number", nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if body := decodeBody[orderNumberResponse](t, w); body.OrderNumber != "CGABC123XYZ" {
		t.Errorf("order_number = %q", body.OrderNumber)
	}
}
