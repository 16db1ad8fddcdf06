package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/cmd/api/auth"
	"folio/cmd/api/clients/identityclient"
	"folio/cmd/api/dto"
	apiservices "folio/cmd/api/services"
	"folio/config"
	"folio/imagecdn"
	"folio/repositories/inmemory"
	"folio/services"
)

const password = "correct-horse"

// stubIdentity 는 email 별 계정을 돌려주는 가짜 provider 다.
type stubIdentity struct {
	accounts map[string]identityclient.Account
}

func (s *stubIdentity) SignInWithPassword(ctx context.Context, email, pw string) (*identityclient.Account, error) {
	acc, ok := s.accounts[email]
	if !ok {
		return nil, &identityclient.ProviderError{StatusCode: 400, Code: "EMAIL_NOT_FOUND"}
	}
	if pw != password {
		return nil, &identityclient.ProviderError{StatusCode: 400, Code: "INVALID_PASSWORD"}
	}
	return &acc, nil
}

type testServer struct {
	engine *gin.Engine
	posts  *inmemory.PostStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := inmemory.NewPostStore()
	drafts := inmemory.NewDraftStore()
	cfg := config.PostsConfig{PageSize: 10, AdminPageSize: 50, MaxPageSize: 100}

	jwtManager, err := auth.NewJWTManager(config.AuthConfig{JWTSecret: "router-test"})
	require.NoError(t, err)
	authSvc := apiservices.NewAuthService(&stubIdentity{accounts: map[string]identityclient.Account{
		"alice@example.com": {LocalID: "alice", Email: "alice@example.com"},
		"bob@example.com":   {LocalID: "bob", Email: "bob@example.com"},
	}}, jwtManager)

	engine := New(Deps{
		Posts:  services.NewPostService(store, drafts, nil, cfg),
		Drafts: services.NewDraftService(drafts, store),
		Auth:   authSvc,
		Images: imagecdn.New(config.CDNConfig{}, nil),
	})
	return &testServer{engine: engine, posts: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequestDTO{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sess dto.SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	return sess.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func postBody(slug string, published bool) map[string]any {
	return map[string]any{
		"title":     "Title " + slug,
		"slug":      slug,
		"excerpt":   "Excerpt " + slug,
		"content":   strings.Repeat("word ", 250),
		"tags":      []string{"go"},
		"published": published,
	}
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/admin/posts", token, postBody("hello-world", true))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/v1/admin/posts", token, postBody("secret-draft", false))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("list only published", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/posts", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[dto.PostPageDTO](t, w)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "hello-world", page.Data[0].Slug)
		assert.Empty(t, page.Data[0].Content)
		assert.Equal(t, 10, page.Limit)
		assert.False(t, page.HasMore)
	})

	t.Run("get by slug", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/posts/hello-world", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		p := decode[dto.PostDTO](t, w)
		assert.Equal(t, 2, p.ReadingTime)
		assert.Equal(t, "2 min read", p.ReadingTimeText)
		assert.NotEmpty(t, p.Content)
	})

	t.Run("unpublished is hidden", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/posts/secret-draft", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("adjacent", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/posts/hello-world/adjacent", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		adj := decode[dto.AdjacentPostsDTO](t, w)
		assert.Nil(t, adj.Previous)
		assert.Nil(t, adj.Next)

		w = s.do(t, http.MethodGet, "/api/v1/posts/missing/adjacent", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad limit and cursor", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/posts?limit=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decode[dto.ErrorResponseDTO](t, w)
		require.Len(t, errResp.Fields, 1)
		assert.Equal(t, "limit", errResp.Fields[0].Path)

		w = s.do(t, http.MethodGet, "/api/v1/posts?cursor=not-a-cursor", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStoreNotInitialized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := New(Deps{Posts: services.NewPostService(nil, nil, nil, config.PostsConfig{})})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not_configured")
}

func TestAdminRequiresSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/admin/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/posts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice@example.com")
	bob := s.login(t, "bob@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/admin/posts", alice, postBody("my-post", false))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.PostDTO](t, w)
	assert.Equal(t, "alice", created.AuthorID)
	path := "/api/v1/admin/posts/" + created.ID

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/admin/posts", bob, postBody("my-post", true))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 1, s.posts.Len())
	})

	t.Run("validation fields", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/admin/posts", alice, map[string]any{"title": "x"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		errResp := decode[dto.ErrorResponseDTO](t, w)
		assert.Equal(t, "validation_failed", errResp.Error)
		paths := map[string]bool{}
		for _, f := range errResp.Fields {
			paths[f.Path] = true
		}
		assert.True(t, paths["slug"])
		assert.True(t, paths["content"])
	})

	t.Run("other author sees not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, bob, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, path, bob, map[string]any{"title": "hijack"}).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, bob, nil).Code)
	})

	t.Run("owner lists and updates", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/admin/posts", alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[dto.PostPageDTO](t, w).Data, 1)

		w = s.do(t, http.MethodGet, "/api/v1/admin/posts", bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[dto.PostPageDTO](t, w).Data)

		w = s.do(t, http.MethodPatch, path, alice, map[string]any{"published": true})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, decode[dto.PostDTO](t, w).Published)

		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/posts/my-post", "", nil).Code)

		w = s.do(t, http.MethodPatch, path, alice, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("drafts", func(t *testing.T) {
		draftPath := path + "/draft"
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, draftPath, alice, nil).Code)

		w := s.do(t, http.MethodPut, draftPath, alice, map[string]any{"title": "half written"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(t, http.MethodGet, draftPath, alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		d := decode[dto.DraftDTO](t, w)
		assert.Equal(t, "half written", d.Fields.Title)
		assert.Equal(t, created.ID, d.PostID)

		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, draftPath, bob, nil).Code)

		assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, draftPath, alice, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, draftPath, alice, nil).Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, alice, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, alice, nil).Code)
		assert.Equal(t, 0, s.posts.Len())
	})
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("failure kinds", func(t *testing.T) {
		cases := []struct {
			email, password string
			kind            auth.FailureKind
		}{
			{"", password, auth.InvalidEmail},
			{"alice@example.com", "", auth.InvalidCredentials},
			{"nobody@example.com", password, auth.UserNotFound},
			{"alice@example.com", "wrong", auth.WrongPassword},
		}
		for _, tc := range cases {
			w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequestDTO{Email: tc.email, Password: tc.password})
			require.Equal(t, http.StatusUnauthorized, w.Code)
			errResp := decode[dto.ErrorResponseDTO](t, w)
			assert.Equal(t, string(tc.kind), errResp.Error)
			assert.Equal(t, tc.kind.Message(), errResp.Message)
		}
	})

	t.Run("me and logout", func(t *testing.T) {
		token := s.login(t, "alice@example.com")

		w := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", decode[dto.UserDTO](t, w).UID)

		assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/admin/posts", token, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
	})
}

func multipartRequest(t *testing.T, token, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestImageUpload(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@example.com")
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, multipartRequest(t, token, "cover.png", png))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	img := decode[dto.ImageUploadDTO](t, w)
	assert.True(t, img.Fallback)
	assert.True(t, strings.HasPrefix(img.URL, "data:image/png;base64,"))

	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, multipartRequest(t, token, "notes.txt", []byte("plain text")))
	require.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decode[dto.ErrorResponseDTO](t, w)
	require.Len(t, errResp.Fields, 1)
	assert.Equal(t, "file", errResp.Fields[0].Path)

	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, multipartRequest(t, token, "big.png", append(png, make([]byte, imagecdn.MaxFallbackSize)...)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
