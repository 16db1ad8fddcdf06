package events

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"folio/models"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	PostCreated   EventType = "post.created"
	PostUpdated   EventType = "post.updated"
	PostPublished EventType = "post.published"
	PostDeleted   EventType = "post.deleted"
)

const Version = "1"

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "folioctl" 등
	Version   string    `json:"version"`
}

func NewBaseEvent(t EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   Version,
	}
}

// PostEvent 는 포스트 생명주기 이벤트의 공통 페이로드다.
// 모든 타입이 같은 토픽을 사용하므로 Type 으로 분기한다.
type PostEvent struct {
	BaseEvent
	PostID        primitive.ObjectID `json:"post_id"`
	AuthorID      string             `json:"author_id"`
	Slug          string             `json:"slug"`
	Title         string             `json:"title"`
	Published     bool               `json:"published"`
	CoverImageURL string             `json:"cover_image_url,omitempty"`
	// post.updated 에서 커버 이미지가 교체/제거된 경우 이전 URL
	PreviousCoverImageURL string `json:"previous_cover_image_url,omitempty"`
}

func NewPostEvent(t EventType, source string, p *models.Post) PostEvent {
	return PostEvent{
		BaseEvent:     NewBaseEvent(t, source),
		PostID:        p.ID,
		AuthorID:      p.AuthorID,
		Slug:          p.Slug,
		Title:         p.Title,
		Published:     p.Published,
		CoverImageURL: p.CoverImageURL,
	}
}

// OrphanedImage 는 이 이벤트로 더 이상 참조되지 않게 된 커버 이미지 URL 을 반환한다.
func (e PostEvent) OrphanedImage() string {
	switch e.Type {
	case PostDeleted:
		return e.CoverImageURL
	case PostUpdated:
		if e.PreviousCoverImageURL != e.CoverImageURL {
			return e.PreviousCoverImageURL
		}
	}
	return ""
}
