package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/chefgo/internal/database"
)

// healthDBTimeout はヘルスチェックでのDB疎通確認のタイムアウト。
const healthDBTimeout = 2 * time.Second

var errNoDatabase = errors.New("database is not configured")

// HealthHandler はサービスの状態と必須設定の有無を返す。
// 設定値そのものは返さない。
type HealthHandler struct {
	db       database.Pinger
	secrets  map[string]bool
	location *time.Location
	now      func() time.Time
}

// NewHealthHandler はHealthHandlerを生成する。
// dbがnilの場合はDBの状態を "unavailable" として返す。locationがnilの場合はUTCを使う。
func NewHealthHandler(db database.Pinger, secrets map[string]bool, location *time.Location) *HealthHandler {
	if location == nil {
		location = time.UTC
	}
	return &HealthHandler{db: db, secrets: secrets, location: location, now: time.Now}
}

type healthResponse struct {
	Status   string          `json:"status"`
	Time     string          `json:"time"`
	Timezone string          `json:"timezone"`
	Secrets  map[string]bool `json:"secrets"`
	Database string          `json:"database"`
}

// ServeHTTP はヘルスチェックに応答する。
// DBに接続できない場合もプロセス自体は稼働しているため200でstatus=degradedを返す。
// GET /api/health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Time:     h.now().In(h.location).Format(time.RFC3339),
		Timezone: h.location.String(),
		Secrets:  h.secrets,
		Database: "ok",
	}

	if err := h.pingDB(r.Context()); err != nil {
		slog.WarnContext(r.Context(), "health check: database unavailable", slog.String("error", err.Error()))
		resp.Status = "degraded"
		resp.Database = "unavailable"
	}
	for _, present := range h.secrets {
		if !present {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	if h.db == nil {
		return errNoDatabase
	}
	return database.Ping(ctx, h.db, healthDBTimeout)
}
