package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a blog post document
// Collection: posts
//
//	slug: uniq_slug 인덱스로 전역 유일
//	reading_time: content 로부터 계산된 분 단위 값 (최소 1)
type Post struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
	Title         string             `bson:"title" json:"title"`
	Slug          string             `bson:"slug" json:"slug"`
	Excerpt       string             `bson:"excerpt" json:"excerpt"`
	Content       string             `bson:"content" json:"content"`
	Tags          []string           `bson:"tags" json:"tags"`
	CoverImageURL string             `bson:"cover_image_url,omitempty" json:"cover_image_url,omitempty"`
	AuthorID      string             `bson:"author_id" json:"author_id"`
	Published     bool               `bson:"published" json:"published"`
	ReadingTime   int                `bson:"reading_time" json:"reading_time"`
}

// HasTag 는 대소문자를 구분해 태그 포함 여부를 확인한다. (store 쿼리와 동일한 의미)
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchesSearch 는 title/excerpt 에 대한 대소문자 무시 부분 문자열 매칭이다.
func (p *Post) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Excerpt), term)
}

// PostInput 은 새 포스트 생성 요청이다.
type PostInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Slug          string   `json:"slug" validate:"required,max=200,slug"`
	Excerpt       string   `json:"excerpt" validate:"required,max=500"`
	Content       string   `json:"content" validate:"required,max=50000"`
	Tags          []string `json:"tags" validate:"max=10,dive,min=1,max=50"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,cover_image"`
	Published     bool     `json:"published"`
}

// Normalize trims the fields that are stored trimmed.
func (in *PostInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
	in.Tags = normalizeTags(in.Tags)
}

// PostPatch 는 부분 수정 요청이다. nil 필드는 변경하지 않는다.
// CoverImageURL 을 빈 문자열로 보내면 커버 이미지를 제거한다.
type PostPatch struct {
	Title         *string   `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Slug          *string   `json:"slug,omitempty" validate:"omitnil,min=1,max=200,slug"`
	Excerpt       *string   `json:"excerpt,omitempty" validate:"omitnil,min=1,max=500"`
	Content       *string   `json:"content,omitempty" validate:"omitnil,min=1,max=50000"`
	Tags          *[]string `json:"tags,omitempty" validate:"omitnil,max=10,dive,min=1,max=50"`
	CoverImageURL *string   `json:"cover_image_url,omitempty" validate:"omitempty,cover_image"`
	Published     *bool     `json:"published,omitempty"`
}

func (p *PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Slug == nil && p.Excerpt == nil && p.Content == nil &&
		p.Tags == nil && p.CoverImageURL == nil && p.Published == nil
}

func (p *PostPatch) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(p.Title)
	trim(p.Slug)
	trim(p.Excerpt)
	trim(p.CoverImageURL)
	if p.Tags != nil {
		tags := normalizeTags(*p.Tags)
		p.Tags = &tags
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}
