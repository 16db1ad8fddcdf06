package dto

type ImageUploadDTO struct {
	URL         string `json:"url"`
	ThumbURL    string `json:"thumb_url"`
	ContentType string `json:"content_type" example:"image/png"`
	Size        int    `json:"size"`
	// Fallback 이면 url 은 data URL 이다. (CDN 미설정 개발 환경)
	Fallback bool `json:"fallback"`
}
