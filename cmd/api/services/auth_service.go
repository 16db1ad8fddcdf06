package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/cmd/api/auth"
	"folio/cmd/api/clients/identityclient"
	"folio/config"
	"folio/logger"
)

var (
	// ErrAuthNotConfigured 는 identity provider API 키가 없을 때 반환된다.
	ErrAuthNotConfigured = errors.New("auth is not initialized")
	ErrInvalidSession    = errors.New("invalid_token")
)

// IdentityProvider 는 이메일/비밀번호 로그인을 수행하는 외부 provider 다.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identityclient.Account, error)
}

type AuthService struct {
	provider   IdentityProvider
	jwtManager *auth.JWTManager
	notifier   *auth.StateNotifier
	now        func() time.Time
}

// Session 은 로그인 성공 시 클라이언트에 내려주는 세션 토큰과 사용자다.
type Session struct {
	Token     string
	User      auth.User
	ExpiresAt time.Time
}

func NewAuthService(provider IdentityProvider, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		provider:   provider,
		jwtManager: jwtManager,
		notifier:   auth.NewStateNotifier(),
		now:        time.Now,
	}
}

func NewAuthServiceFromConfig(cfg config.AuthConfig) (*AuthService, error) {
	jwtManager, err := auth.NewJWTManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init JWTManager: %w", err)
	}
	return NewAuthService(identityclient.New(cfg, nil), jwtManager), nil
}

// SignIn 은 provider 로 자격 증명을 확인하고 세션 토큰을 발급한다.
// 로그인 실패는 항상 *auth.SignInError 로 반환된다.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &auth.SignInError{Kind: auth.InvalidEmail}
	}
	if password == "" {
		return nil, &auth.SignInError{Kind: auth.InvalidCredentials}
	}

	account, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, identityclient.ErrNotConfigured) {
			return nil, ErrAuthNotConfigured
		}
		kind := auth.Unknown
		var pe *identityclient.ProviderError
		if errors.As(err, &pe) {
			kind = auth.KindFromProviderCode(pe.Code)
		}
		logger.WarnWithFields("sign in failed", logger.Fields{
			"email": email,
			"kind":  string(kind),
			"error": err.Error(),
		})
		return nil, &auth.SignInError{Kind: kind, Cause: err}
	}

	user := auth.User{UID: account.LocalID, Email: account.Email, DisplayName: account.DisplayName}
	if user.Email == "" {
		user.Email = email
	}
	token, claims, err := s.jwtManager.Sign(user)
	if err != nil {
		return nil, fmt.Errorf("jwt sign: %w", err)
	}

	logger.InfoWithFields("user signed in", logger.Fields{"uid": user.UID})
	s.notifier.Notify(auth.StateEvent{Change: auth.SignedIn, User: user, At: s.now().UTC()})

	return &Session{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// SignOut 은 세션 토큰을 폐기한다. 이미 폐기되었거나 유효하지 않은 토큰이면 ErrInvalidSession.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.jwtManager.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	s.jwtManager.Revoke(claims)

	user := claims.User()
	logger.InfoWithFields("user signed out", logger.Fields{"uid": user.UID})
	s.notifier.Notify(auth.StateEvent{Change: auth.SignedOut, User: user, At: s.now().UTC()})
	return nil
}

// Authenticate 는 세션 토큰을 검증해 클레임을 돌려준다.
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.jwtManager.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return claims, nil
}

// CurrentUser returns the signed-in user for token, or nil when the token is
// missing, expired or revoked.
func (s *AuthService) CurrentUser(token string) *auth.User {
	if token == "" {
		return nil
	}
	claims, err := s.jwtManager.Parse(token)
	if err != nil {
		return nil
	}
	u := claims.User()
	return &u
}

func (s *AuthService) Subscribe(listener auth.Listener) (unsubscribe func()) {
	return s.notifier.Subscribe(listener)
}
