package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// derivedKeySize は導出する鍵の長さ（HS256の推奨鍵長）。
const derivedKeySize = 32

// DeriveKey はsecretからlabelごとに独立した署名鍵をHKDF-SHA256で導出する。
// 同じsecretでもlabelが違えば別の鍵になる。
func DeriveKey(secret, label string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is required for key derivation")
	}
	key := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(label)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
