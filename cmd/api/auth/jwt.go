package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"folio/config"
)

var (
	ErrRevokedToken  = errors.New("token has been revoked")
	ErrMissingSecret = errors.New("auth.jwt_secret is required")
)

// User 는 세션 토큰에 담기는 로그인 사용자 정보다.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Claims 는 세션 토큰 클레임이다. jti 로 로그아웃한 토큰을 폐기한다.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) User() User {
	return User{UID: c.Subject, Email: c.Email, DisplayName: c.Name}
}

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 발급/검증한다.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> 만료 시각
}

// NewJWTManager 는 auth 설정으로 JWTManager 를 생성한다.
//
// - jwt_secret: HS256 서명에 사용할 시크릿 문자열(필수)
// - jwt_issuer: iss 클레임 값(기본값 "folio")
// - session_ttl: 토큰 유효 기간(기본값 24h)
func NewJWTManager(cfg config.AuthConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	issuer := cfg.JWTIssuer
	if issuer == "" {
		issuer = "folio"
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		issuer:  issuer,
		ttl:     ttl,
		now:     time.Now,
		revoked: map[string]time.Time{},
	}, nil
}

func (m *JWTManager) Sign(u User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Email: u.Email,
		Name:  u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.UID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}
	if m.isRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke 는 토큰이 만료될 때까지 jti 를 폐기 목록에 둔다.
func (m *JWTManager) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	exp := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.revoked[claims.ID] = exp
}

func (m *JWTManager) isRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok
}

// 만료된 토큰은 어차피 Parse 에서 거절되므로 목록에서 지운다.
func (m *JWTManager) pruneLocked() {
	now := m.now()
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
		}
	}
}
