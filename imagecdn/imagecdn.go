// Package imagecdn uploads images to the Cloudinary-compatible image CDN and
// builds transformation URLs for them. Without CDN credentials it falls back
// to inline data URLs for small files, which is meant for local development only.
package imagecdn

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"folio/config"
	"folio/httpclient"
	"folio/logger"
)

// MaxFallbackSize 는 data URL 로 대체할 수 있는 최대 크기(200KB)다.
const MaxFallbackSize = 200 * 1024

const DefaultMaxSizeMB = 10

var (
	ErrEmpty               = errors.New("image is empty")
	ErrNotImage            = errors.New("Please select an image file")
	ErrTooLarge            = errors.New("image is too large")
	ErrTooLargeForFallback = errors.New("image too large for fallback mode")
	ErrUploadFailed        = errors.New("failed to upload image")
)

// Image 는 업로드 결과다. Fallback 이면 URL 은 data URL 이다.
type Image struct {
	URL         string `json:"url"`
	PublicID    string `json:"public_id,omitempty"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Fallback    bool   `json:"fallback"`
}

type Client struct {
	base         *httpclient.BaseClient
	cloudName    string
	uploadPreset string
	apiKey       string
	apiSecret    string
	maxBytes     int
	now          func() time.Time
}

// New 는 cfg 로 클라이언트를 만든다. httpClient 가 nil 이면 로깅 RoundTripper 가 붙은 기본 클라이언트를 사용한다.
func New(cfg config.CDNConfig, httpClient *http.Client) *Client {
	maxMB := cfg.MaxSizeMB
	if maxMB <= 0 {
		maxMB = DefaultMaxSizeMB
	}
	if httpClient == nil {
		httpClient = httpclient.New(httpclient.Config{Timeout: 60 * time.Second})
	}
	return &Client{
		base:         httpclient.NewBaseClientWithClient(httpClient, cfg.BaseURL),
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		maxBytes:     maxMB * 1024 * 1024,
		now:          time.Now,
	}
}

// Configured reports whether unsigned uploads are possible.
func (c *Client) Configured() bool {
	return c.cloudName != "" && c.uploadPreset != ""
}

// Validate sniffs the MIME type from the bytes and checks the size limits
// before any network call. It returns the detected MIME type.
func (c *Client) Validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if len(data) > c.maxBytes {
		return "", fmt.Errorf("%w: Image size must be less than %dMB", ErrTooLarge, c.maxBytes/(1024*1024))
	}
	if !c.Configured() && len(data) > MaxFallbackSize {
		return "", fmt.Errorf("%w (%.1fKB). Configure the image CDN or use images < 200KB",
			ErrTooLargeForFallback, float64(len(data))/1024)
	}
	return mimeBase(mt.String()), nil
}

// mimeBase strips parameters: "image/svg+xml; charset=utf-8" -> "image/svg+xml".
func mimeBase(m string) string {
	if i := strings.Index(m, ";"); i >= 0 {
		return strings.TrimSpace(m[:i])
	}
	return m
}

func dataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Upload validates and uploads data. When the CDN is not configured, or the
// upload fails, files up to MaxFallbackSize are returned as data URLs instead.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*Image, error) {
	contentType, err := c.Validate(data)
	if err != nil {
		return nil, err
	}

	if !c.Configured() {
		logger.WarnWithFields("image CDN is not configured, using data URL fallback (development only)", logger.Fields{
			"filename": filename,
			"size":     len(data),
		})
		return &Image{URL: dataURL(contentType, data), ContentType: contentType, Size: len(data), Fallback: true}, nil
	}

	img, uploadErr := c.upload(ctx, filename, contentType, data)
	if uploadErr == nil {
		return img, nil
	}

	if len(data) <= MaxFallbackSize {
		logger.WarnWithFields("image upload failed, falling back to data URL", logger.Fields{
			"filename": filename,
			"error":    uploadErr.Error(),
		})
		return &Image{URL: dataURL(contentType, data), ContentType: contentType, Size: len(data), Fallback: true}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUploadFailed, uploadErr)
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) upload(ctx context.Context, filename, contentType string, data []byte) (*Image, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.WriteField("upload_preset", c.uploadPreset); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.base.NewRequest(ctx, http.MethodPost, "/v1_1/"+c.cloudName+"/image/upload", nil, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadResponse
	if err := c.base.DoJSON(req, &out); err != nil {
		return nil, describe(err)
	}
	if out.SecureURL == "" {
		return nil, errors.New("upload response has no secure_url")
	}
	return &Image{URL: out.SecureURL, PublicID: out.PublicID, ContentType: contentType, Size: len(data)}, nil
}

// describe 는 CDN 의 {"error":{"message":...}} 응답에서 메시지를 꺼낸다.
func describe(err error) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body uploadResponse
	if jsonErr := json.Unmarshal(se.Body, &body); jsonErr == nil && body.Error != nil && body.Error.Message != "" {
		return errors.New(body.Error.Message)
	}
	return fmt.Errorf("upload failed: %s", http.StatusText(se.StatusCode))
}

var transformSegment = regexp.MustCompile(`^[a-z]{1,3}_[^/]*$`)
var versionSegment = regexp.MustCompile(`^v\d+$`)

// IsCDNURL reports whether raw points at a Cloudinary-style delivery URL.
func IsCDNURL(raw string) bool {
	return strings.Contains(raw, "cloudinary.com") && strings.Contains(raw, "/upload/")
}

// PublicID extracts the asset id from a delivery URL:
// ".../image/upload/w_800,c_limit/v123/blog/cover.jpg" -> "blog/cover".
func PublicID(raw string) (string, bool) {
	if !IsCDNURL(raw) {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	parts := strings.SplitN(u.Path, "/upload/", 2)
	if len(parts) != 2 {
		return "", false
	}

	segs := strings.Split(parts[1], "/")
	for len(segs) > 1 && (strings.Contains(segs[0], ",") || transformSegment.MatchString(segs[0])) {
		segs = segs[1:]
	}
	if len(segs) > 1 && versionSegment.MatchString(segs[0]) {
		segs = segs[1:]
	}
	id := strings.Join(segs, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	return id, id != ""
}

// OptimizedURL inserts w_<width>,c_limit,q_auto,f_auto[,h_<height>] after the
// /upload/ segment of CDN URLs. Other URLs are returned unchanged.
func OptimizedURL(raw string, width, height int) string {
	if !IsCDNURL(raw) || width <= 0 {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parts := strings.Split(u.Path, "/upload/")
	if len(parts) != 2 {
		return raw
	}

	transforms := []string{"w_" + strconv.Itoa(width), "c_limit", "q_auto", "f_auto"}
	if height > 0 {
		transforms = append(transforms, "h_"+strconv.Itoa(height))
	}
	u.Path = parts[0] + "/upload/" + strings.Join(transforms, ",") + "/" + parts[1]
	return u.String()
}

// sign 은 CDN 의 서명 규칙: 파라미터를 키 순으로 이어 붙인 뒤 secret 을 붙여 SHA-1.
func sign(params url.Values, secret string) string {
	// url.Values.Encode 는 키 정렬을 보장하지만 값을 escape 하므로 직접 이어 붙인다.
	keys := []string{"public_id", "timestamp"}
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

type destroyResponse struct {
	Result string `json:"result"`
}

// Destroy deletes a CDN-hosted image. Data URLs, foreign URLs and a client
// without API credentials are no-ops. An already missing asset counts as deleted.
func (c *Client) Destroy(ctx context.Context, imageURL string) error {
	publicID, ok := PublicID(imageURL)
	if !ok {
		return nil
	}
	if c.apiKey == "" || c.apiSecret == "" || c.cloudName == "" {
		logger.WarnWithFields("image CDN API credentials missing, skipping destroy", logger.Fields{"public_id": publicID})
		return nil
	}

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	form.Set("signature", sign(form, c.apiSecret))
	form.Set("api_key", c.apiKey)

	req, err := c.base.NewRequest(ctx, http.MethodPost, "/v1_1/"+c.cloudName+"/image/destroy", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out destroyResponse
	if err := c.base.DoJSON(req, &out); err != nil {
		return fmt.Errorf("destroy image %s: %w", publicID, err)
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("destroy image %s: unexpected result %q", publicID, out.Result)
	}
	logger.InfoWithFields("image destroyed", logger.Fields{"public_id": publicID, "result": out.Result})
	return nil
}
