package session

import (
	"time"

	"github.com/hitoshi/chefgo/internal/model"
)

// View はトークンから復元したセッションの読み取り専用ビュー。
// ロールと状態は署名済みクレームの値そのものであり、呼び出し側で書き換えない。
type View struct {
	UserID      string              `json:"user_id"`
	Email       string              `json:"email"`
	DisplayName string              `json:"display_name"`
	Role        model.Role          `json:"role"`
	Status      model.AccountStatus `json:"status"`
	Avatar      string              `json:"avatar,omitempty"`
	Profile     *model.ProfileRef   `json:"profile,omitempty"`
	TokenID     string              `json:"-"`
	IssuedAt    time.Time           `json:"issued_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

func viewFromClaims(c *Claims) *View {
	v := &View{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		Role:        c.Role,
		Status:      c.Status,
		Avatar:      c.Avatar,
		Profile:     c.Profile,
		TokenID:     c.ID,
	}
	if c.IssuedAt != nil {
		v.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		v.ExpiresAt = c.ExpiresAt.Time
	}
	return v
}

// Phase はセッション確定の段階を表す。
type Phase int

const (
	// PhaseLoading はセッションの復元が完了していない状態。
	PhaseLoading Phase = iota
	// PhaseUnauthenticated は有効なセッションがない状態。
	PhaseUnauthenticated
	// PhaseAuthenticated は有効なセッションがある状態。
	PhaseAuthenticated
)

// String はログ出力用の名前を返す。
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State はあるクライアントコンテキストにおける現在のセッション状態。
// PhaseAuthenticatedのときだけViewが非nil。
type State struct {
	Phase Phase
	View  *View
}

// Loading は復元中の状態を返す。
func Loading() State {
	return State{Phase: PhaseLoading}
}

// Unauthenticated は未認証の状態を返す。
func Unauthenticated() State {
	return State{Phase: PhaseUnauthenticated}
}

// Authenticated はビューを持つ認証済み状態を返す。vがnilの場合は未認証になる。
func Authenticated(v *View) State {
	if v == nil {
		return Unauthenticated()
	}
	return State{Phase: PhaseAuthenticated, View: v}
}
