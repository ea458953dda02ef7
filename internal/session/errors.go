package session

import "errors"

var (
	// ErrSessionExpired はトークンの有効期限切れ。
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionTampered は署名不一致や形式不正など、改ざんの疑いがあるトークン。
	ErrSessionTampered = errors.New("session tampered")
	// ErrSessionRevoked はログアウト等で失効済みのトークン。
	ErrSessionRevoked = errors.New("session revoked")
)

// reasonOf はメトリクス・ログ用の失敗理由ラベルを返す。
func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrSessionExpired):
		return "expired"
	case errors.Is(err, ErrSessionRevoked):
		return "revoked"
	case errors.Is(err, ErrSessionTampered):
		return "tampered"
	default:
		return "error"
	}
}
