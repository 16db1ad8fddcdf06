package auth

// FailureKind 는 로그인 실패 사유의 닫힌 집합이다. provider 가 새 코드를 추가해도
// 여기서는 Unknown 으로 떨어진다.
type FailureKind string

const (
	InvalidEmail       FailureKind = "invalid_email"
	UserDisabled       FailureKind = "user_disabled"
	UserNotFound       FailureKind = "user_not_found"
	WrongPassword      FailureKind = "wrong_password"
	InvalidCredentials FailureKind = "invalid_credentials"
	TooManyAttempts    FailureKind = "too_many_attempts"
	Unknown            FailureKind = "unknown"
)

var failureMessages = map[FailureKind]string{
	InvalidEmail:       "Invalid email address",
	UserDisabled:       "This account has been disabled",
	UserNotFound:       "No account found with this email",
	WrongPassword:      "Incorrect password",
	InvalidCredentials: "Invalid email or password",
	TooManyAttempts:    "Too many failed attempts. Please try again later",
	Unknown:            "Failed to sign in",
}

// Message 는 사용자에게 그대로 보여줄 문구다.
func (k FailureKind) Message() string {
	if msg, ok := failureMessages[k]; ok {
		return msg
	}
	return failureMessages[Unknown]
}

var providerCodes = map[string]FailureKind{
	"INVALID_EMAIL":               InvalidEmail,
	"USER_DISABLED":               UserDisabled,
	"EMAIL_NOT_FOUND":             UserNotFound,
	"INVALID_PASSWORD":            WrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   InvalidCredentials,
	"TOO_MANY_ATTEMPTS_TRY_LATER": TooManyAttempts,
}

// KindFromProviderCode maps an identity provider error code to a FailureKind.
func KindFromProviderCode(code string) FailureKind {
	if k, ok := providerCodes[code]; ok {
		return k
	}
	return Unknown
}

// SignInError 는 로그인 실패를 나타낸다. Cause 는 로깅용이며 응답에 노출하지 않는다.
type SignInError struct {
	Kind  FailureKind
	Cause error
}

func (e *SignInError) Error() string {
	return e.Kind.Message()
}

func (e *SignInError) Unwrap() error {
	return e.Cause
}
