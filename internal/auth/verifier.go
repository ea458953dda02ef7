// Package auth は資格情報の検証、ログイン、会員登録を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/chefgo/internal/metrics"
	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/security"
)

// ErrInvalidCredentials は資格情報の検証に失敗したことを表す。
// 失敗の具体的な原因は呼び出し元に区別させない。
var ErrInvalidCredentials = errors.New("invalid credentials")

// 検証失敗の原因。ログとメトリクスのラベルにのみ使う。
const (
	reasonEmptyInput        = "empty_input"
	reasonUnknownIdentifier = "unknown_identifier"
	reasonSecretMismatch    = "secret_mismatch"
	reasonStatusDisallowed  = "status_disallowed"
	reasonStoreError        = "store_error"
)

// CredentialStore は資格情報の参照先。repository.UserRepositoryの部分集合。
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// LoginRecorder はログイン試行のメトリクス記録先。
type LoginRecorder interface {
	RecordLogin(result, reason string)
	RecordLoginLatency(duration time.Duration)
}

// Verifier は識別子とシークレットからIdentityを確定させる。
// アカウントの状態は変更しない。
type Verifier struct {
	store     CredentialStore
	recorder  LoginRecorder
	dummyHash string
}

// NewVerifier はVerifierを生成する。recorderがnilならメトリクスを記録しない。
// 存在しない識別子でも照合時間を揃えるため、起動時にダミーハッシュを1つ生成する。
func NewVerifier(store CredentialStore, recorder LoginRecorder) (*Verifier, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	dummy, err := security.HashSecret("chefgo-dummy-secret")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Verifier{store: store, recorder: recorder, dummyHash: dummy}, nil
}

// NormalizeIdentifier は識別子（メールアドレス）を照合用に正規化する。
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Authenticate は識別子とシークレットを検証する。
// 資格情報に起因する失敗はすべてErrInvalidCredentialsを返す。
// ストアの障害はラップしたエラーを返す。
func (v *Verifier) Authenticate(ctx context.Context, identifier, secret string) (*model.Identity, error) {
	start := time.Now()
	defer func() { v.recorder.RecordLoginLatency(time.Since(start)) }()

	email := NormalizeIdentifier(identifier)
	if email == "" || secret == "" {
		return nil, v.reject(ctx, email, "", reasonEmptyInput)
	}

	user, err := v.store.FindByEmail(ctx, email)
	if err != nil {
		v.recorder.RecordLogin(metrics.LoginResultFailure, reasonStoreError)
		return nil, fmt.Errorf("failed to look up credentials: %w", err)
	}

	if user == nil {
		// 照合時間から識別子の存在が分からないようにする
		security.VerifySecret(secret, v.dummyHash)
		return nil, v.reject(ctx, email, "", reasonUnknownIdentifier)
	}

	if !security.VerifySecret(secret, user.PasswordHash) {
		return nil, v.reject(ctx, email, user.ID, reasonSecretMismatch)
	}

	if !user.Status.CanLogin() {
		return nil, v.reject(ctx, email, user.ID, reasonStatusDisallowed)
	}

	v.recorder.RecordLogin(metrics.LoginResultSuccess, "")
	slog.InfoContext(ctx, "credentials verified",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user.Identity(), nil
}

func (v *Verifier) reject(ctx context.Context, email, userID, reason string) error {
	v.recorder.RecordLogin(metrics.LoginResultFailure, reason)
	slog.InfoContext(ctx, "credential verification failed",
		slog.String("identifier", email),
		slog.String("user_id", userID),
		slog.String("reason", reason),
	)
	return ErrInvalidCredentials
}
