package authz

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/session"
)

// mockRecorder はRecorderのテスト用モック。
type mockRecorder struct {
	calls []string
}

func (m *mockRecorder) RecordGateDecision(role, decision string) {
	m.calls = append(m.calls, role+":"+decision)
}

var allRoles = []model.Role{model.RoleCustomer, model.RoleRider, model.RoleRestaurant, model.RoleAdmin}

func authenticated(role model.Role) session.State {
	return session.Authenticated(&session.View{UserID: "u-1", Role: role, Status: model.StatusActive})
}

func TestGate_Authorize(t *testing.T) {
	g := NewGate(Config{LoginPath: "/login", UnauthorizedPath: "/denied"}, nil)

	tests := []struct {
		name     string
		state    session.State
		required model.Role
		want     Decision
	}{
		{
			name:     "取得中は保留",
			state:    session.Loading(),
			required: model.RoleAdmin,
			want:     Decision{Kind: DecisionPending},
		},
		{
			name:     "未認証はログインへ",
			state:    session.Unauthenticated(),
			required: model.RoleRider,
			want:     Decision{Kind: DecisionRedirect, Target: "/login", Reason: model.ErrCodeUnauthenticated},
		},
		{
			name:     "ロール不一致は権限なしへ",
			state:    authenticated(model.RoleCustomer),
			required: model.RoleAdmin,
			want:     Decision{Kind: DecisionRedirect, Target: "/denied", Reason: model.ErrCodeInsufficientRole},
		},
		{
			name:     "ロール一致は許可",
			state:    authenticated(model.RoleRider),
			required: model.RoleRider,
			want:     Decision{Kind: DecisionAllow},
		},
		{
			name:     "ADMINでも他ロールの領域は許可しない",
			state:    authenticated(model.RoleAdmin),
			required: model.RoleRestaurant,
			want:     Decision{Kind: DecisionRedirect, Target: "/denied", Reason: model.ErrCodeInsufficientRole},
		},
		{
			name:     "ビューのない認証状態は未認証扱い",
			state:    session.State{Phase: session.PhaseAuthenticated},
			required: model.RoleCustomer,
			want:     Decision{Kind: DecisionRedirect, Target: "/login", Reason: model.ErrCodeUnauthenticated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Authorize(tt.state, tt.required); got != tt.want {
				t.Errorf("Authorize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGate_LoadingNeverRedirects(t *testing.T) {
	g := NewGate(Config{}, nil)
	for _, role := range allRoles {
		d := g.Authorize(session.Loading(), role)
		if d.Kind != DecisionPending {
			t.Errorf("Authorize(Loading, %s) = %v, want pending", role, d.Kind)
		}
		if d.Target != "" {
			t.Errorf("Authorize(Loading, %s) target = %q, want empty", role, d.Target)
		}
	}
}

func TestGate_RoleMatrix(t *testing.T) {
	g := NewGate(Config{}, nil)
	for _, have := range allRoles {
		for _, need := range allRoles {
			d := g.Authorize(authenticated(have), need)
			if have == need && !d.Allowed() {
				t.Errorf("role %s requiring %s: want allow, got %v", have, need, d.Kind)
			}
			if have != need && (d.Kind != DecisionRedirect || d.Target != DefaultUnauthorizedPath) {
				t.Errorf("role %s requiring %s: want redirect to %s, got %+v", have, need, DefaultUnauthorizedPath, d)
			}
		}
	}
}

func TestNewGate_Defaults(t *testing.T) {
	g := NewGate(Config{}, nil)
	if g.LoginPath() != DefaultLoginPath {
		t.Errorf("LoginPath() = %q, want %q", g.LoginPath(), DefaultLoginPath)
	}
	d := g.Authorize(authenticated(model.RoleRider), model.RoleAdmin)
	if d.Target != DefaultUnauthorizedPath {
		t.Errorf("Target = %q, want %q", d.Target, DefaultUnauthorizedPath)
	}
}

func TestGate_FixedInstantiations(t *testing.T) {
	g := NewGate(Config{}, nil)
	checks := []struct {
		role model.Role
		fn   func(session.State) Decision
	}{
		{model.RoleAdmin, g.RequireAdmin},
		{model.RoleRider, g.RequireRider},
		{model.RoleRestaurant, g.RequireRestaurant},
		{model.RoleCustomer, g.RequireCustomer},
	}

	for _, c := range checks {
		t.Run(string(c.role), func(t *testing.T) {
			if d := c.fn(authenticated(c.role)); !d.Allowed() {
				t.Errorf("want allow for %s, got %+v", c.role, d)
			}
			if d := c.fn(session.Unauthenticated()); d.Target != DefaultLoginPath {
				t.Errorf("want redirect to login, got %+v", d)
			}
			if d := c.fn(session.Loading()); d.Kind != DecisionPending {
				t.Errorf("want pending, got %+v", d)
			}
		})
	}
}

func TestGate_RecordsDecisions(t *testing.T) {
	rec := &mockRecorder{}
	g := NewGate(Config{}, rec)

	g.RequireAdmin(session.Loading())
	g.RequireAdmin(authenticated(model.RoleAdmin))
	g.RequireRider(session.Unauthenticated())

	want := []string{"ADMIN:pending", "ADMIN:allow", "RIDER:redirect"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, rec.calls[i], want[i])
		}
	}
}

// Keeperの取得が終わるまではリダイレクトが発生しないことを検証
func TestGate_WithKeeper_WaitsForSettledState(t *testing.T) {
	g := NewGate(Config{}, nil)
	release := make(chan struct{})
	settled := make(chan session.State, 1)

	k := session.NewKeeper(func(ctx context.Context) (*session.View, error) {
		<-release
		return &session.View{UserID: "u-1", Role: model.RoleRider}, nil
	}, session.KeeperOptions{
		Interval: time.Hour,
		OnChange: func(s session.State) {
			select {
			case settled <- s:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(ctx)

	for _, role := range allRoles {
		if d := g.Authorize(k.State(), role); d.Kind != DecisionPending {
			t.Fatalf("before settle, Authorize(%s) = %+v, want pending", role, d)
		}
	}

	close(release)
	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for keeper")
	}

	if d := g.RequireRider(k.State()); !d.Allowed() {
		t.Errorf("after settle, RequireRider = %+v, want allow", d)
	}
	if d := g.RequireAdmin(k.State()); d.Target != DefaultUnauthorizedPath {
		t.Errorf("after settle, RequireAdmin = %+v, want redirect to %s", d, DefaultUnauthorizedPath)
	}
}
