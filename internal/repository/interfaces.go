// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/chefgo/internal/model"
)

// ErrEmailExists は同じメールアドレスのユーザーが既に存在することを表す。
var ErrEmailExists = errors.New("email already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	// ロールに対応するプロフィールがあればProfileに設定する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithProfile はユーザーとプロフィールを同一トランザクションで作成する。
	// メールアドレスが重複する場合はErrEmailExistsを返す。
	CreateWithProfile(ctx context.Context, user *model.User) error
}

// RevocationStore はログアウト済みトークンID（jti）の保存先。
// session.RevocationStoreとして利用する。
type RevocationStore interface {
	// Revoke はjtiをuntilまで失効扱いにする。untilが過去なら何もしない。
	Revoke(ctx context.Context, jti string, until time.Time) error
	// IsRevoked はjtiが失効済みかを返す。
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
