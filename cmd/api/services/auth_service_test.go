package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/cmd/api/auth"
	"folio/cmd/api/clients/identityclient"
	"folio/config"
)

type fakeProvider struct {
	account *identityclient.Account
	err     error
	calls   int
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*identityclient.Account, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.account, nil
}

func newAuthService(t *testing.T, p IdentityProvider) *AuthService {
	t.Helper()
	jwtManager, err := auth.NewJWTManager(config.AuthConfig{JWTSecret: "test-secret"})
	require.NoError(t, err)
	return NewAuthService(p, jwtManager)
}

func TestSignIn_Success(t *testing.T) {
	p := &fakeProvider{account: &identityclient.Account{LocalID: "uid-1", Email: "owner@example.com"}}
	svc := newAuthService(t, p)

	var events []auth.StateEvent
	svc.Subscribe(func(ev auth.StateEvent) { events = append(events, ev) })

	sess, err := svc.SignIn(context.Background(), "  owner@example.com ", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "uid-1", sess.User.UID)
	assert.False(t, sess.ExpiresAt.IsZero())

	u := svc.CurrentUser(sess.Token)
	require.NotNil(t, u)
	assert.Equal(t, "owner@example.com", u.Email)

	require.Len(t, events, 1)
	assert.Equal(t, auth.SignedIn, events[0].Change)
	assert.Equal(t, "uid-1", events[0].User.UID)
}

func TestSignIn_MapsProviderCodes(t *testing.T) {
	cases := map[string]auth.FailureKind{
		"EMAIL_NOT_FOUND":             auth.UserNotFound,
		"INVALID_PASSWORD":            auth.WrongPassword,
		"INVALID_LOGIN_CREDENTIALS":   auth.InvalidCredentials,
		"USER_DISABLED":               auth.UserDisabled,
		"TOO_MANY_ATTEMPTS_TRY_LATER": auth.TooManyAttempts,
		"INVALID_EMAIL":               auth.InvalidEmail,
		"SOMETHING_NEW":               auth.Unknown,
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			svc := newAuthService(t, &fakeProvider{err: &identityclient.ProviderError{StatusCode: 400, Code: code}})

			_, err := svc.SignIn(context.Background(), "a@b.c", "pw")
			var se *auth.SignInError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, want, se.Kind)
			assert.Equal(t, want.Message(), err.Error())
		})
	}
}

func TestSignIn_TransportErrorIsUnknown(t *testing.T) {
	svc := newAuthService(t, &fakeProvider{err: errors.New("dial tcp: refused")})

	_, err := svc.SignIn(context.Background(), "a@b.c", "pw")
	var se *auth.SignInError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, auth.Unknown, se.Kind)
}

func TestSignIn_InputChecksSkipProvider(t *testing.T) {
	p := &fakeProvider{}
	svc := newAuthService(t, p)

	_, err := svc.SignIn(context.Background(), " ", "pw")
	var se *auth.SignInError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, auth.InvalidEmail, se.Kind)

	_, err = svc.SignIn(context.Background(), "a@b.c", "")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, auth.InvalidCredentials, se.Kind)

	assert.Zero(t, p.calls)
}

func TestSignIn_NotConfigured(t *testing.T) {
	svc := newAuthService(t, &fakeProvider{err: identityclient.ErrNotConfigured})

	_, err := svc.SignIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
}

func TestSignOut_RevokesAndNotifies(t *testing.T) {
	svc := newAuthService(t, &fakeProvider{account: &identityclient.Account{LocalID: "uid-1", Email: "o@e.com"}})
	sess, err := svc.SignIn(context.Background(), "o@e.com", "pw")
	require.NoError(t, err)

	var changes []auth.StateChange
	unsubscribe := svc.Subscribe(func(ev auth.StateEvent) { changes = append(changes, ev.Change) })

	require.NoError(t, svc.SignOut(context.Background(), sess.Token))
	assert.Nil(t, svc.CurrentUser(sess.Token))
	_, err = svc.Authenticate(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.ErrorIs(t, svc.SignOut(context.Background(), sess.Token), ErrInvalidSession)
	assert.Equal(t, []auth.StateChange{auth.SignedOut}, changes)

	unsubscribe()
	_, err = svc.SignIn(context.Background(), "o@e.com", "pw")
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestCurrentUser_InvalidTokens(t *testing.T) {
	svc := newAuthService(t, &fakeProvider{})
	assert.Nil(t, svc.CurrentUser(""))
	assert.Nil(t, svc.CurrentUser("not-a-jwt"))
}
