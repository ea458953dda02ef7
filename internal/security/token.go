package security

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL は汎用トークンの既定の有効期間。
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenAudience は汎用トークンのaud。セッショントークンとして通らないように必ず付与する。
const TokenAudience = "chefgo-token"

// reservedClaims は登録済みクレーム。呼び出し側の値は署名時に捨て、検証結果のペイロードからも除く。
var reservedClaims = []string{"exp", "iat", "nbf", "sub", "jti", "iss", "aud"}

// TokenSigner はセッションとは独立した汎用の署名付きトークンを発行・検証する。
// 注文番号の共有リンクや外部連携用のAPIトークンなどに使う。
// 構築後は読み取り専用のため、複数のgoroutineから安全に利用できる。
type TokenSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenSigner はTokenSignerを生成する。
// keyが空の場合はエラーを返す。ttlが0以下の場合はDefaultTokenTTLを使う。
func NewTokenSigner(key []byte, ttl time.Duration) (*TokenSigner, error) {
	if len(key) == 0 {
		return nil, errors.New("token signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{key: key, ttl: ttl, now: time.Now}, nil
}

// Sign はペイロードに有効期限と発行時刻を付与してHS256で署名する。
// sub、jti、issなどの登録済みクレームはペイロードに含めても署名されない。
func (s *TokenSigner) Sign(payload map[string]any) (string, error) {
	return s.SignWithTTL(payload, s.ttl)
}

// SignWithTTL は有効期間を指定して署名する。
func (s *TokenSigner) SignWithTTL(payload map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("invalid token ttl: %v", ttl)
	}

	now := s.now()
	claims := jwt.MapClaims{}
	maps.Copy(claims, payload)
	for _, k := range reservedClaims {
		delete(claims, k)
	}
	claims["aud"] = TokenAudience
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証してペイロードを返す。
// 署名不一致、形式不正、期限切れのいずれの場合も (nil, false) を返し、エラーは返さない。
// 数値はJSONデコードの都合でfloat64になる。
func (s *TokenSigner) Verify(token string) (map[string]any, bool) {
	if token == "" {
		return nil, false
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience(TokenAudience),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, false
	}

	payload := make(map[string]any, len(claims))
	maps.Copy(payload, claims)
	for _, k := range reservedClaims {
		delete(payload, k)
	}
	return payload, true
}
