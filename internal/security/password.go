package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretHashCost はbcryptのワークファクタ。
const SecretHashCost = 12

// MaxSecretBytes はbcryptが受け付けるシークレットの最大バイト数。
const MaxSecretBytes = 72

// ErrEmptySecret は空のシークレットをハッシュしようとした場合のエラー。
var ErrEmptySecret = errors.New("secret must not be empty")

// HashSecret はシークレットをソルト付きbcryptでハッシュ化する。
// 同じ入力でも毎回異なるハッシュを返す。検証にはVerifySecretを使う。
// bcryptの仕様上、MaxSecretBytesを超える入力はエラーになる。
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), SecretHashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(b), nil
}

// VerifySecret はシークレットが保存済みハッシュと一致するかを返す。
// 比較はbcrypt内部で定数時間に行われる。ハッシュが壊れている場合もfalseを返す。
func VerifySecret(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
