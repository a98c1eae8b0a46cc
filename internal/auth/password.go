package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptySecret は空のパスワードをハッシュ化しようとした場合のエラー。
var ErrEmptySecret = errors.New("auth: empty secret")

const (
	tempPasswordLength  = 10
	tempPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordHasher はbcryptによるパスワードハッシュの生成と検証を行う。
// ハッシュはソルトとコストを含む自己記述形式（$2a$<cost>$...）で、そのままTEXT列に保存できる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使う。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash はパスワードのハッシュを生成する。同じ入力でも呼び出しごとに異なるソルトが使われる。
func (h *PasswordHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify はパスワードがハッシュと一致するかを返す。
// ハッシュ未設定（nilまたは空文字）の場合は常にfalse。
func (h *PasswordHasher) Verify(digest *string, secret string) bool {
	if digest == nil || *digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*digest), []byte(secret)) == nil
}

// GenerateTempPassword は英数字10文字の一時パスワードを生成する。
func GenerateTempPassword() (string, error) {
	limit := big.NewInt(int64(len(tempPasswordCharset)))
	buf := make([]byte, tempPasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate temporary password: %w", err)
		}
		buf[i] = tempPasswordCharset[n.Int64()]
	}
	return string(buf), nil
}
