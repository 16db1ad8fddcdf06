package repositories

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrDuplicateSlug 는 uniq_slug 인덱스 위반 시 반환된다.
	ErrDuplicateSlug = errors.New("duplicate slug")
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Cursor 는 직전 페이지 마지막 문서의 (정렬 시각, _id) 쌍이다.
// 클라이언트에는 Encode 결과만 노출한다.
type Cursor struct {
	At time.Time          `json:"t"`
	ID primitive.ObjectID `json:"id"`
}

func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor returns nil for an empty token.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.ID.IsZero() || c.At.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Follows reports whether (at, id) sorts strictly after the cursor in a
// descending (time, id) ordering, i.e. belongs to the next page.
func (c Cursor) Follows(at time.Time, id primitive.ObjectID) bool {
	if at.Equal(c.At) {
		return id.Hex() < c.ID.Hex()
	}
	return at.Before(c.At)
}

type PublishedQuery struct {
	Tag   string
	Limit int
	After *Cursor
}

type AuthorQuery struct {
	AuthorID string
	Limit    int
	After    *Cursor
}

// PostChanges 는 Update 에 전달되는 $set 대상이다. nil 필드는 건드리지 않는다.
type PostChanges struct {
	Title         *string
	Slug          *string
	Excerpt       *string
	Content       *string
	Tags          *[]string
	CoverImageURL *string
	Published     *bool
	ReadingTime   *int
	UpdatedAt     time.Time
}
