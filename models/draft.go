package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Draft 는 관리 화면에서 편집 중인 내용을 주기적으로 저장해 둔 스냅샷이다.
// Collection: drafts, (post_id, author_id) 유일
// 저장 시점의 값을 그대로 보관하므로 검증하지 않는다.
type Draft struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PostID   primitive.ObjectID `bson:"post_id" json:"post_id"`
	AuthorID string             `bson:"author_id" json:"author_id"`
	Fields   DraftFields        `bson:"fields" json:"fields"`
	SavedAt  time.Time          `bson:"saved_at" json:"saved_at"`
}

type DraftFields struct {
	Title         string   `bson:"title" json:"title"`
	Slug          string   `bson:"slug" json:"slug"`
	Excerpt       string   `bson:"excerpt" json:"excerpt"`
	Content       string   `bson:"content" json:"content"`
	Tags          []string `bson:"tags" json:"tags"`
	CoverImageURL string   `bson:"cover_image_url" json:"cover_image_url"`
	Published     bool     `bson:"published" json:"published"`
}
