package identityclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"folio/config"
	"folio/httpclient"
)

// Client는 호스팅된 Identity Toolkit REST API(이메일/비밀번호 로그인)를 호출하는 얇은 클라이언트다.
//
// baseURL 예: https://identitytoolkit.googleapis.com

type Client struct {
	base   *httpclient.BaseClient
	apiKey string
}

var ErrNotConfigured = errors.New("identity provider api key is not configured")

// ProviderError 는 provider 가 돌려준 에러다. Code 는 "INVALID_PASSWORD" 처럼
// 메시지의 " : " 앞부분만 남긴 값이다.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: status=%d code=%s", e.StatusCode, e.Code)
}

func New(cfg config.AuthConfig, httpClient *http.Client) *Client {
	return &Client{
		base:   httpclient.NewBaseClientWithClient(httpClient, cfg.IdentityBaseURL),
		apiKey: cfg.IdentityAPIKey,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// -------------------- DTOs --------------------

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// Account 는 로그인 성공 응답 중 필요한 필드만 담는다.
type Account struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword는 POST /v1/accounts:signInWithPassword?key=... 를 호출한다.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Account, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	req, err := c.base.NewRequest(ctx, http.MethodPost, "/v1/accounts:signInWithPassword", q, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var account Account
	if err := c.base.DoJSON(req, &account); err != nil {
		return nil, toProviderError(err)
	}
	if account.LocalID == "" {
		return nil, errors.New("identity provider: response missing localId")
	}
	return &account, nil
}

func toProviderError(err error) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("identity provider request: %w", err)
	}

	var body errorResponse
	if jsonErr := json.Unmarshal(se.Body, &body); jsonErr != nil || body.Error.Message == "" {
		return &ProviderError{StatusCode: se.StatusCode, Code: "UNKNOWN"}
	}
	code := body.Error.Message
	if i := strings.Index(code, " : "); i >= 0 {
		code = code[:i]
	}
	return &ProviderError{
		StatusCode: se.StatusCode,
		Code:       strings.TrimSpace(code),
		Message:    body.Error.Message,
	}
}
