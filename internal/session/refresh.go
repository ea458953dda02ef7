package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RefreshPolicy はトークンを再発行する時期を決める。
type RefreshPolicy struct {
	Interval time.Duration
}

// Due はビューの発行からInterval以上経過しているかを返す。
func (p RefreshPolicy) Due(v *View, now time.Time) bool {
	if v == nil || v.IssuedAt.IsZero() {
		return false
	}
	return now.Sub(v.IssuedAt) >= p.Interval
}

// LoadFunc は現在のセッションを取得する。
// 有効なセッションがない場合は (nil, nil) を返す。
// エラーは通信失敗などの一時的な失敗を表し、セッションの失効とはみなさない。
type LoadFunc func(ctx context.Context) (*View, error)

// KeeperOptions はKeeperの設定。
type KeeperOptions struct {
	// Interval は定期再取得の間隔。0以下ならDefaultRefreshInterval。
	Interval time.Duration
	// Online はクライアントがオンラインかどうかを返す。nilなら常にオンライン。
	Online func() bool
	// OnChange は状態が変わるたびに呼ばれる。nilでもよい。
	OnChange func(State)
}

// Keeper は1つのクライアントコンテキストのセッション状態を保持する。
// 起動直後はPhaseLoadingで、最初の取得が終わるまでロールゲートの判断を保留させる。
// その後は一定間隔とフォーカス復帰時に再取得する。オフライン中は再取得しない。
type Keeper struct {
	load     LoadFunc
	interval time.Duration
	online   func() bool
	onChange func(State)

	focus chan struct{}

	mu    sync.RWMutex
	state State
}

// NewKeeper はKeeperを生成する。Runを呼ぶまで取得は行わない。
func NewKeeper(load LoadFunc, opts KeeperOptions) *Keeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	if opts.Online == nil {
		opts.Online = func() bool { return true }
	}
	return &Keeper{
		load:     load,
		interval: opts.Interval,
		online:   opts.Online,
		onChange: opts.OnChange,
		focus:    make(chan struct{}, 1),
		state:    Loading(),
	}
}

// State は現在のセッション状態を返す。
func (k *Keeper) State() State {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

// Focus はクライアントが前面に戻ったことを通知する。ブロックしない。
func (k *Keeper) Focus() {
	select {
	case k.focus <- struct{}{}:
	default:
	}
}

// Run は最初の取得を行い、その後ctxがキャンセルされるまで再取得を続ける。
func (k *Keeper) Run(ctx context.Context) {
	k.reload(ctx, true)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.reload(ctx, false)
		case <-k.focus:
			k.reload(ctx, false)
		}
	}
}

// reload はセッションを取得して状態を更新する。
// 初回はオフラインでも取得を試みる。取得に失敗した場合は直前の状態を維持し、
// 初回の失敗のみ未認証として確定させる。
func (k *Keeper) reload(ctx context.Context, initial bool) {
	if !initial && !k.online() {
		slog.Debug("session refresh skipped while offline")
		return
	}

	v, err := k.load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("session refresh failed", slog.String("error", err.Error()))
		if initial {
			k.set(Unauthenticated())
		}
		return
	}

	k.set(Authenticated(v))
}

func (k *Keeper) set(s State) {
	k.mu.Lock()
	k.state = s
	k.mu.Unlock()

	if k.onChange != nil {
		k.onChange(s)
	}
}
