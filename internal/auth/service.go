package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/session"
)

// Authenticator は資格情報の検証を行う。Verifierが実装する。
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (*model.Identity, error)
}

// SessionManager はセッションの発行と失効に必要な操作。session.Managerが実装する。
type SessionManager interface {
	Issue(identity *model.Identity) (string, *session.View, error)
	Refresh(v *session.View) (string, *session.View, error)
	Revoke(ctx context.Context, v *session.View) error
}

// LoginResult はログイン成功時に返すセッション。
type LoginResult struct {
	Token string
	View  *session.View
}

// Service はログイン、ログアウト、セッション再発行を提供する。
type Service struct {
	authenticator Authenticator
	sessions      SessionManager
}

// NewService はServiceを生成する。
func NewService(authenticator Authenticator, sessions SessionManager) *Service {
	return &Service{authenticator: authenticator, sessions: sessions}
}

// Login は資格情報を検証し、セッションを発行する。
func (s *Service) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	identity, err := s.authenticator.Authenticate(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	return s.StartSession(ctx, identity)
}

// StartSession は確定済みのIdentityに対してセッションを発行する。
// 会員登録直後のログインにも使う。
func (s *Service) StartSession(ctx context.Context, identity *model.Identity) (*LoginResult, error) {
	token, view, err := s.sessions.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	slog.InfoContext(ctx, "session issued",
		slog.String("user_id", view.UserID),
		slog.String("role", string(view.Role)),
		slog.String("jti", view.TokenID),
	)
	return &LoginResult{Token: token, View: view}, nil
}

// Refresh は有効なセッションと同じ内容で新しいトークンを発行する。
// 古いトークンは失効させる。
func (s *Service) Refresh(ctx context.Context, v *session.View) (*LoginResult, error) {
	if v == nil {
		return nil, session.ErrSessionTampered
	}
	token, fresh, err := s.sessions.Refresh(v)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	if err := s.sessions.Revoke(ctx, v); err != nil {
		// 新しいトークンは発行済みのためリクエストは失敗させない
		slog.WarnContext(ctx, "failed to revoke superseded session",
			slog.String("jti", v.TokenID),
			slog.String("error", err.Error()),
		)
	}
	return &LoginResult{Token: token, View: fresh}, nil
}

// Logout はセッションを失効させる。セッションがない場合は何もしない。
func (s *Service) Logout(ctx context.Context, v *session.View) error {
	if v == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, v); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	slog.InfoContext(ctx, "user logged out",
		slog.String("user_id", v.UserID),
		slog.String("jti", v.TokenID),
	)
	return nil
}
