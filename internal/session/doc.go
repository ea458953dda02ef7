// Package session は認証済みIdentityから署名付きセッショントークンを発行し、
// リクエストごとにトークンを検証してセッションビューへ復元する。
//
// トークンはクライアントが保持し、サーバーはセッションテーブルを持たない。
// ログアウト時の失効のみ、jti単位でRevocationStoreに期限付きで記録する。
package session
