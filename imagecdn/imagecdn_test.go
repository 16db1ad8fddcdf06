package imagecdn

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngOfSize(n int) []byte {
	b := make([]byte, n)
	copy(b, pngHeader)
	return b
}

func newTestClient(t *testing.T, cfg config.CDNConfig, h http.HandlerFunc) *Client {
	t.Helper()
	if h == nil {
		return New(cfg, http.DefaultClient)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return New(cfg, srv.Client())
}

func configured() config.CDNConfig {
	return config.CDNConfig{CloudName: "demo", UploadPreset: "blog", APIKey: "k1", APISecret: "s3cret"}
}

func TestValidate(t *testing.T) {
	c := New(config.CDNConfig{MaxSizeMB: 1}, http.DefaultClient)

	mt, err := c.Validate(pngOfSize(1024))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	_, err = c.Validate([]byte("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = c.Validate(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = c.Validate(pngOfSize(2 * 1024 * 1024))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "Image size must be less than 1MB")

	_, err = c.Validate(pngOfSize(300 * 1024))
	assert.ErrorIs(t, err, ErrTooLargeForFallback)
	assert.Contains(t, err.Error(), "300.0KB")
}

func TestUpload_Unconfigured_DataURL(t *testing.T) {
	c := New(config.CDNConfig{}, http.DefaultClient)
	assert.False(t, c.Configured())

	img, err := c.Upload(context.Background(), "a.png", pngOfSize(100))
	require.NoError(t, err)
	assert.True(t, img.Fallback)
	assert.True(t, strings.HasPrefix(img.URL, "data:image/png;base64,"))
	assert.Equal(t, 100, img.Size)
}

func TestUpload_Success(t *testing.T) {
	c := newTestClient(t, configured(), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "blog", r.FormValue("upload_preset"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "cover.png", hdr.Filename)
		body, _ := io.ReadAll(f)
		assert.True(t, bytes.HasPrefix(body, pngHeader))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/blog/cover.png","public_id":"blog/cover"}`))
	})

	img, err := c.Upload(context.Background(), "cover.png", pngOfSize(2048))
	require.NoError(t, err)
	assert.False(t, img.Fallback)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/blog/cover.png", img.URL)
	assert.Equal(t, "blog/cover", img.PublicID)
}

func TestUpload_FailureFallsBackForSmallFiles(t *testing.T) {
	c := newTestClient(t, configured(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	})

	img, err := c.Upload(context.Background(), "a.png", pngOfSize(1024))
	require.NoError(t, err)
	assert.True(t, img.Fallback)

	_, err = c.Upload(context.Background(), "big.png", pngOfSize(300*1024))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestOptimizedURL(t *testing.T) {
	src := "https://res.cloudinary.com/demo/image/upload/v123/blog/cover.jpg"

	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/w_800,c_limit,q_auto,f_auto/v123/blog/cover.jpg",
		OptimizedURL(src, 800, 0))
	assert.Equal(t,
		"https://res.cloudinary.com/demo/image/upload/w_400,c_limit,q_auto,f_auto,h_300/v123/blog/cover.jpg",
		OptimizedURL(src, 400, 300))

	other := "https://example.com/upload/cover.jpg"
	assert.Equal(t, other, OptimizedURL(other, 800, 0))
	assert.Equal(t, "data:image/png;base64,AAAA", OptimizedURL("data:image/png;base64,AAAA", 800, 0))
}

func TestPublicID(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v123/blog/cover.jpg":                  "blog/cover",
		"https://res.cloudinary.com/demo/image/upload/w_800,c_limit/v123/blog/cover.jpg":    "blog/cover",
		"https://res.cloudinary.com/demo/image/upload/cover.png":                            "cover",
		"https://res.cloudinary.com/demo/image/upload/q_auto/f_auto/v9/nested/dir/img.webp": "nested/dir/img",
	}
	for in, want := range cases {
		got, ok := PublicID(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := PublicID("https://example.com/a.png")
	assert.False(t, ok)
	_, ok = PublicID("data:image/png;base64,AAAA")
	assert.False(t, ok)
}

func TestDestroy(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	called := false
	c := newTestClient(t, configured(), func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/v1_1/demo/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "blog/cover", r.PostForm.Get("public_id"))
		assert.Equal(t, "1700000000", r.PostForm.Get("timestamp"))
		assert.Equal(t, "k1", r.PostForm.Get("api_key"))

		sum := sha1.Sum([]byte("public_id=blog/cover&timestamp=1700000000s3cret"))
		assert.Equal(t, hex.EncodeToString(sum[:]), r.PostForm.Get("signature"))
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})
	c.now = func() time.Time { return fixed }

	require.NoError(t, c.Destroy(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1/blog/cover.png"))
	assert.True(t, called)
}

func TestDestroy_NoOps(t *testing.T) {
	c := newTestClient(t, configured(), func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request to %s", r.URL.Path)
	})

	assert.NoError(t, c.Destroy(context.Background(), "data:image/png;base64,AAAA"))
	assert.NoError(t, c.Destroy(context.Background(), "https://example.com/cover.png"))
	assert.NoError(t, c.Destroy(context.Background(), ""))

	noCreds := New(config.CDNConfig{CloudName: "demo", UploadPreset: "blog"}, http.DefaultClient)
	assert.NoError(t, noCreds.Destroy(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1/x.png"))
}

func TestDestroy_NotFoundIsSuccess(t *testing.T) {
	c := newTestClient(t, configured(), func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"not found"}`))
	})
	assert.NoError(t, c.Destroy(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1/gone.png"))
}
