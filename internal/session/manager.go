package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/chefgo/internal/model"
)

// DefaultMaxAge はセッショントークンの既定の有効期間。
const DefaultMaxAge = 7 * 24 * time.Hour

// DefaultRefreshInterval はトークン再発行の既定の間隔。
const DefaultRefreshInterval = 30 * time.Minute

// RevocationStore はログアウト済みトークンIDの保存先。
type RevocationStore interface {
	// Revoke はjtiをuntilまで失効扱いにする。
	Revoke(ctx context.Context, jti string, until time.Time) error
	// IsRevoked はjtiが失効済みかを返す。
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Recorder はセッション拒否のメトリクス記録先。
type Recorder interface {
	RecordSessionRejected(reason string)
}

// ManagerConfig はManagerの設定。
type ManagerConfig struct {
	MaxAge          time.Duration
	RefreshInterval time.Duration
}

// Manager はセッショントークンの発行と復元を行う。
// 構築後は読み取り専用のため、複数のgoroutineから安全に利用できる。
type Manager struct {
	encoder     ClaimsEncoder
	revocations RevocationStore
	recorder    Recorder
	policy      RefreshPolicy
	maxAge      time.Duration
	now         func() time.Time
}

// NewManager はManagerを生成する。
// revocationsとrecorderはnilでもよい。
func NewManager(encoder ClaimsEncoder, revocations RevocationStore, recorder Recorder, cfg ManagerConfig) (*Manager, error) {
	if encoder == nil {
		return nil, errors.New("claims encoder is required")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	return &Manager{
		encoder:     encoder,
		revocations: revocations,
		recorder:    recorder,
		policy:      RefreshPolicy{Interval: cfg.RefreshInterval},
		maxAge:      cfg.MaxAge,
		now:         time.Now,
	}, nil
}

// MaxAge はトークンの有効期間を返す。Cookieの有効期間に使う。
func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

// Policy はトークン再発行のポリシーを返す。
func (m *Manager) Policy() RefreshPolicy {
	return m.policy
}

// Issue はIdentityから署名付きセッショントークンを発行する。
// ロール、状態、プロフィール参照をクレームに埋め込み、発行時刻と有効期限を設定する。
func (m *Manager) Issue(identity *model.Identity) (string, *View, error) {
	if identity == nil || identity.ID == "" {
		return "", nil, errors.New("identity is required")
	}
	if !identity.Role.Valid() {
		return "", nil, fmt.Errorf("invalid role: %q", identity.Role)
	}

	now := m.now()
	claims := &Claims{
		Email:   identity.Email,
		Name:    identity.DisplayName,
		Role:    identity.Role,
		Status:  identity.Status,
		Avatar:  identity.Avatar,
		Profile: model.RefOf(identity.Profile),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token, err := m.encoder.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, viewFromClaims(claims), nil
}

// Materialize はトークンを検証してセッションビューを返す。
// 署名不一致、期限切れ、失効済みなど、いずれの失敗でも (nil, false) を返し、
// 呼び出し側には未認証として扱わせる。
func (m *Manager) Materialize(ctx context.Context, raw string) (*View, bool) {
	if raw == "" {
		return nil, false
	}
	v, err := m.Inspect(ctx, raw)
	if err != nil {
		reason := reasonOf(err)
		slog.Debug("session rejected",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		if m.recorder != nil {
			m.recorder.RecordSessionRejected(reason)
		}
		return nil, false
	}
	return v, true
}

// Inspect はMaterializeと同じ検証を行い、失敗理由をエラーで返す。
// 失効確認でストアが応答しない場合は安全側に倒してエラーを返す。
func (m *Manager) Inspect(ctx context.Context, raw string) (*View, error) {
	claims, err := m.encoder.Decode(raw)
	if err != nil {
		return nil, err
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check revocation: %w", err)
		}
		if revoked {
			return nil, ErrSessionRevoked
		}
	}

	return viewFromClaims(claims), nil
}

// Refresh は有効なセッションビューから同じクレームで新しいトークンを発行する。
// 新しいjti・発行時刻・有効期限を持つ。
func (m *Manager) Refresh(v *View) (string, *View, error) {
	if v == nil {
		return "", nil, errors.New("session view is required")
	}
	return m.Issue(&model.Identity{
		ID:          v.UserID,
		Email:       v.Email,
		DisplayName: v.DisplayName,
		Role:        v.Role,
		Status:      v.Status,
		Avatar:      v.Avatar,
		Profile:     profileFromRef(v.Profile),
	})
}

// Revoke はビューのトークンを有効期限まで失効させる。
// 失効ストアが未設定の場合は何もしない。
func (m *Manager) Revoke(ctx context.Context, v *View) error {
	if v == nil || m.revocations == nil {
		return nil
	}
	if err := m.revocations.Revoke(ctx, v.TokenID, v.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RefreshDue はビューが再発行の時期に達しているかを返す。
func (m *Manager) RefreshDue(v *View) bool {
	return m.policy.Due(v, m.now())
}

// profileFromRef はトークン上の参照から最小限のProfileを復元する。
func profileFromRef(ref *model.ProfileRef) model.Profile {
	if ref == nil {
		return nil
	}
	switch ref.Kind {
	case model.ProfileKindCustomer:
		return &model.CustomerProfile{ID: ref.ID}
	case model.ProfileKindRider:
		return &model.RiderProfile{ID: ref.ID}
	case model.ProfileKindRestaurant:
		return &model.RestaurantProfile{ID: ref.ID}
	default:
		return nil
	}
}
