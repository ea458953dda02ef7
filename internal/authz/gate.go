// Package authz はセッション状態と必要ロールからアクセス可否を判定する。
package authz

import (
	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/session"
)

// DefaultLoginPath は未認証時のリダイレクト先の既定値。
const DefaultLoginPath = "/auth/login"

// DefaultUnauthorizedPath はロール不一致時のリダイレクト先の既定値。
const DefaultUnauthorizedPath = "/unauthorized"

// DecisionKind は判定結果の種類。
type DecisionKind int

const (
	// DecisionPending はセッション取得中で判定を保留することを表す。
	DecisionPending DecisionKind = iota
	// DecisionAllow はアクセスを許可することを表す。
	DecisionAllow
	// DecisionRedirect は別のパスへ誘導することを表す。
	DecisionRedirect
)

// String はメトリクスのラベルやログに使う名前を返す。
func (k DecisionKind) String() string {
	switch k {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision はGateの判定結果。
// Kindがリダイレクトの場合のみTargetとReasonが設定される。
type Decision struct {
	Kind   DecisionKind
	Target string
	// Reason はリダイレクトの理由。未認証ならUNAUTHENTICATED、ロール不一致ならINSUFFICIENT_ROLE。
	Reason string
}

// Allowed はアクセスが許可されたかを返す。
func (d Decision) Allowed() bool {
	return d.Kind == DecisionAllow
}

// Recorder はGateの判定結果の記録先。
type Recorder interface {
	RecordGateDecision(role, decision string)
}

// Config はGateの設定。
type Config struct {
	LoginPath        string
	UnauthorizedPath string
}

// Gate はロールによるアクセス制御を行う。構築後は読み取り専用。
type Gate struct {
	loginPath        string
	unauthorizedPath string
	recorder         Recorder
}

// NewGate はGateを生成する。空のパスは既定値で補う。recorderはnilでもよい。
func NewGate(cfg Config, recorder Recorder) *Gate {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.UnauthorizedPath == "" {
		cfg.UnauthorizedPath = DefaultUnauthorizedPath
	}
	return &Gate{
		loginPath:        cfg.LoginPath,
		unauthorizedPath: cfg.UnauthorizedPath,
		recorder:         recorder,
	}
}

// LoginPath は未認証時のリダイレクト先を返す。
func (g *Gate) LoginPath() string {
	return g.loginPath
}

// Authorize はセッション状態とrequiredロールから判定を返す。
// 取得中の状態では必要ロールに関係なく保留し、リダイレクトも許可もしない。
func (g *Gate) Authorize(state session.State, required model.Role) Decision {
	d := g.decide(state, required)
	if g.recorder != nil {
		g.recorder.RecordGateDecision(string(required), d.Kind.String())
	}
	return d
}

func (g *Gate) decide(state session.State, required model.Role) Decision {
	switch {
	case state.Phase == session.PhaseLoading:
		return Decision{Kind: DecisionPending}
	case state.Phase != session.PhaseAuthenticated || state.View == nil:
		return Decision{Kind: DecisionRedirect, Target: g.loginPath, Reason: model.ErrCodeUnauthenticated}
	case state.View.Role != required:
		return Decision{Kind: DecisionRedirect, Target: g.unauthorizedPath, Reason: model.ErrCodeInsufficientRole}
	default:
		return Decision{Kind: DecisionAllow}
	}
}

// RequireAdmin はADMINロールを要求する。
func (g *Gate) RequireAdmin(state session.State) Decision {
	return g.Authorize(state, model.RoleAdmin)
}

// RequireRider はRIDERロールを要求する。
func (g *Gate) RequireRider(state session.State) Decision {
	return g.Authorize(state, model.RoleRider)
}

// RequireRestaurant はRESTAURANTロールを要求する。
func (g *Gate) RequireRestaurant(state session.State) Decision {
	return g.Authorize(state, model.RoleRestaurant)
}

// RequireCustomer はCUSTOMERロールを要求する。
func (g *Gate) RequireCustomer(state session.State) Decision {
	return g.Authorize(state, model.RoleCustomer)
}
