// Package auth は認証と認可を提供する。
// パスワードハッシュ、署名付きアクセストークン、トークンからのプリンシパル解決、成績変更の所有者チェックを含む。
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/gradebook/internal/model"
)

// DefaultTokenTTL はアクセストークンのデフォルト有効期間。
const DefaultTokenTTL = 60 * time.Minute

// ErrInvalidCredentials は認証失敗を表す。
// パスワード不一致、トークンの署名不正・期限切れ・形式不正、プリンシパル不在をすべてこのエラーに集約する。
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims はアクセストークンのクレーム。
// JSON上は sub, role, iat, exp の4項目のみを持つ。
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity はトークンから取り出したプリンシパルの識別情報。
type Identity struct {
	PrincipalID int64
	Role        model.Role
}

// TokenService はHS256署名のアクセストークンを発行・検証する。
// 署名鍵は生成時に1度だけ注入され、以降は読み取り専用。
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// TokenOption はTokenServiceの任意設定。
type TokenOption func(*TokenService)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService はTokenServiceを生成する。
// defaultTTLが0以下の場合はDefaultTokenTTLを使う。
func NewTokenService(secret []byte, defaultTTL time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: token signing secret is empty")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)

	s := &TokenService{
		secret:     key,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue はプリンシパルのアクセストークンを発行し、トークンと有効期限を返す。
// ttlが0以下の場合はデフォルトの有効期間を使う。
func (s *TokenService) Issue(principalID int64, role model.Role, ttl time.Duration) (string, time.Time, error) {
	if principalID <= 0 {
		return "", time.Time{}, fmt.Errorf("auth: invalid principal id %d", principalID)
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("auth: invalid role %q", role)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	issuedAt := jwt.NewNumericDate(s.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(ttl))

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principalID, 10),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

// Verify はトークンの署名、有効期限、クレームの順に検証し、識別情報を返す。
// 失敗の理由にかかわらずErrInvalidCredentialsを返す。
// 有効期限は現在時刻 >= exp で失効とし、時刻ずれの補正は行わない。
func (s *TokenService) Verify(token string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrInvalidCredentials
	}
	if !claims.Role.Valid() {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{PrincipalID: id, Role: claims.Role}, nil
}
