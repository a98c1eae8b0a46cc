package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/gradebook/internal/model"
)

var (
	testSecret = []byte("test-signing-secret")
	testNow    = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestTokenService(t *testing.T, secret []byte, now time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret, time.Hour, WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return s
}

func TestTokenService_IssueThenVerify(t *testing.T) {
	s := newTestTokenService(t, testSecret, testNow)

	for _, tc := range []struct {
		id   int64
		role model.Role
	}{
		{1, model.RoleStudent},
		{5, model.RoleTeacher},
		{9007199254740993, model.RoleStudent},
	} {
		token, _, err := s.Issue(tc.id, tc.role, 0)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		got, err := s.Verify(token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if got.PrincipalID != tc.id || got.Role != tc.role {
			t.Errorf("Verify = %+v, want {%d %s}", got, tc.id, tc.role)
		}
	}
}

func TestTokenService_ExpiresAtIsIssuedAtPlusTTL(t *testing.T) {
	s := newTestTokenService(t, testSecret, testNow)

	_, exp, err := s.Issue(1, model.RoleStudent, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(testNow.Add(time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", exp, testNow.Add(time.Hour))
	}

	_, exp, err = s.Issue(1, model.RoleStudent, 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(testNow.Add(15 * time.Minute)) {
		t.Errorf("expiresAt = %v, want %v", exp, testNow.Add(15*time.Minute))
	}
}

func TestTokenService_ExpiryIsStrict(t *testing.T) {
	issuer := newTestTokenService(t, testSecret, testNow)
	token, _, err := issuer.Issue(1, model.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"one second before expiry", testNow.Add(time.Hour - time.Second), false},
		{"exactly at expiry", testNow.Add(time.Hour), true},
		{"after expiry", testNow.Add(2 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := newTestTokenService(t, testSecret, tt.at)
			_, err := verifier.Verify(token)
			if tt.wantErr && !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTokenService_DifferentKeyRejected(t *testing.T) {
	issuer := newTestTokenService(t, []byte("key-one"), testNow)
	verifier := newTestTokenService(t, []byte("key-two"), testNow)

	token, _, err := issuer.Issue(1, model.RoleTeacher, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func signRaw(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return token
}

func TestTokenService_MalformedClaimsRejected(t *testing.T) {
	s := newTestTokenService(t, testSecret, testNow)
	exp := testNow.Add(time.Hour).Unix()
	iat := testNow.Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"non numeric subject", signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc", "role": "student", "iat": iat, "exp": exp}, testSecret)},
		{"zero subject", signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "0", "role": "student", "iat": iat, "exp": exp}, testSecret)},
		{"missing subject", signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": "student", "iat": iat, "exp": exp}, testSecret)},
		{"unknown role", signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "admin", "iat": iat, "exp": exp}, testSecret)},
		{"missing role", signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "iat": iat, "exp": exp}, testSecret)},
		{"missing expiry", signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "student", "iat": iat}, testSecret)},
		{"other hmac algorithm", signRaw(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1", "role": "student", "iat": iat, "exp": exp}, testSecret)},
		{"unsigned", signRaw(t, jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "role": "student", "iat": iat, "exp": exp}, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.token); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestTokenService_TamperedPayloadRejected(t *testing.T) {
	s := newTestTokenService(t, testSecret, testNow)
	token, _, err := s.Issue(1, model.RoleStudent, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	forged, _ := json.Marshal(map[string]any{
		"sub": "1", "role": "teacher", "iat": testNow.Unix(), "exp": testNow.Add(time.Hour).Unix(),
	})
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	if _, err := s.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenService_ClaimSetIsExact(t *testing.T) {
	s := newTestTokenService(t, testSecret, testNow)
	token, _, err := s.Issue(42, model.RoleTeacher, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	var keys []string
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != "exp,iat,role,sub" {
		t.Errorf("claim keys = %v, want [exp iat role sub]", keys)
	}
	if claims["sub"] != "42" {
		t.Errorf("sub = %v, want \"42\"", claims["sub"])
	}
	if claims["role"] != "teacher" {
		t.Errorf("role = %v, want teacher", claims["role"])
	}
}

func TestTokenService_IssueRejectsInvalidInput(t *testing.T) {
	s := newTestTokenService(t, testSecret, testNow)

	if _, _, err := s.Issue(0, model.RoleStudent, 0); err == nil {
		t.Error("Issue with id 0 should fail")
	}
	if _, _, err := s.Issue(1, model.Role("admin"), 0); err == nil {
		t.Error("Issue with unknown role should fail")
	}
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	if _, err := NewTokenService(nil, time.Hour); err == nil {
		t.Error("NewTokenService should reject an empty secret")
	}
}
