package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/chefgo/internal/model"
)

// Audience はセッショントークンのaud。汎用トークンと区別するために必須とする。
const Audience = "chefgo-session"

// Claims はセッショントークンに埋め込むクレーム。
// subにユーザーID、jtiにトークンIDを持つ。
type Claims struct {
	Email   string              `json:"email"`
	Name    string              `json:"name"`
	Role    model.Role          `json:"role"`
	Status  model.AccountStatus `json:"status"`
	Avatar  string              `json:"avatar,omitempty"`
	Profile *model.ProfileRef   `json:"profile,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsEncoder はクレームの署名付きエンコードと検証付きデコードを行う。
type ClaimsEncoder interface {
	// Encode はクレームに署名してトークン文字列を返す。
	Encode(claims *Claims) (string, error)
	// Decode は署名・有効期限・発行者を検証してクレームを返す。
	// 期限切れはErrSessionExpired、それ以外の失敗はErrSessionTamperedをラップして返す。
	Decode(raw string) (*Claims, error)
}

// JWTEncoder はHS256のJWTでClaimsEncoderを実装する。
type JWTEncoder struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewJWTEncoder はJWTEncoderを生成する。
// 署名鍵は起動時に1回だけ注入する。空の場合はエラーを返す。
func NewJWTEncoder(key []byte, issuer string) (*JWTEncoder, error) {
	if len(key) == 0 {
		return nil, errors.New("session signing key is required")
	}
	return &JWTEncoder{key: key, issuer: issuer, now: time.Now}, nil
}

// Encode はクレームに署名する。
func (e *JWTEncoder) Encode(claims *Claims) (string, error) {
	claims.Issuer = e.issuer
	claims.Audience = jwt.ClaimStrings{Audience}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証してクレームを返す。
func (e *JWTEncoder) Decode(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience(Audience),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(e.now),
	}
	if e.issuer != "" {
		opts = append(opts, jwt.WithIssuer(e.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return e.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionTampered, err)
	}

	// 署名が正しくても中身が不完全なトークンは受け付けない
	if claims.Subject == "" || claims.ID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", ErrSessionTampered)
	}

	return claims, nil
}

// compile-time interface check
var _ ClaimsEncoder = (*JWTEncoder)(nil)
