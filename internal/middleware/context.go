// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"

	"github.com/hitoshi/chefgo/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// stateContextKey はリクエストコンテキストにセッション状態を格納するためのキー。
	stateContextKey = contextKey("session_state")
	// requestInfoContextKey はログ出力用のリクエスト情報を格納するためのキー。
	requestInfoContextKey = contextKey("request_info")
)

// sessionContext はセッションミドルウェアが確定させた状態。
type sessionContext struct {
	state session.State
	// rejected はトークンが提示されたが復元できなかったことを表す。
	rejected bool
}

// ContextWithState はコンテキストにセッション状態を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithState(ctx context.Context, state session.State) context.Context {
	return context.WithValue(ctx, stateContextKey, &sessionContext{state: state})
}

func contextWithSession(ctx context.Context, sc *sessionContext) context.Context {
	if info := requestInfoFrom(ctx); info != nil && sc.state.View != nil {
		info.userID = sc.state.View.UserID
	}
	return context.WithValue(ctx, stateContextKey, sc)
}

// StateFromContext はリクエストコンテキストからセッション状態を取得する。
// セッションミドルウェアを通過していない場合は確定前（Loading）を返す。
func StateFromContext(ctx context.Context) session.State {
	sc, ok := ctx.Value(stateContextKey).(*sessionContext)
	if !ok {
		return session.Loading()
	}
	return sc.state
}

// ViewFromContext は認証済みの場合にセッションビューを返す。
func ViewFromContext(ctx context.Context) (*session.View, bool) {
	s := StateFromContext(ctx)
	if s.Phase != session.PhaseAuthenticated || s.View == nil {
		return nil, false
	}
	return s.View, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証済みのリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	v, ok := ViewFromContext(ctx)
	if !ok || v.UserID == "" {
		return "", errors.New("user ID not found in context")
	}
	return v.UserID, nil
}

// sessionRejected はトークンが提示されたが復元できなかったかを返す。
func sessionRejected(ctx context.Context) bool {
	sc, ok := ctx.Value(stateContextKey).(*sessionContext)
	return ok && sc.rejected
}

// requestInfo はアクセスログに載せるためにミドルウェア間で共有する値。
type requestInfo struct {
	userID string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoContextKey).(*requestInfo)
	return info
}
