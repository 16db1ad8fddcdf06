package dto

import (
	"time"

	"folio/imagecdn"
	"folio/models"
	"folio/timeutil"
)

const coverThumbWidth = 800

// PostDTO exposes a post together with the display helpers the frontend used
// to compute itself (reading time text, formatted dates, cover thumbnail).
type PostDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Excerpt         string    `json:"excerpt"`
	Content         string    `json:"content,omitempty"`
	Tags            []string  `json:"tags"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	CoverImageThumb string    `json:"cover_image_thumb_url,omitempty"`
	AuthorID        string    `json:"author_id"`
	Published       bool      `json:"published"`
	ReadingTime     int       `json:"reading_time"`
	ReadingTimeText string    `json:"reading_time_text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PublishedDate   string    `json:"published_date"`
	RelativeTime    string    `json:"relative_time"`
	SEODate         string    `json:"seo_date"`
}

// PostSummaryDTO 는 목록 응답용이다. content 를 싣지 않는다.
func PostSummaryDTO(p models.Post) PostDTO {
	d := FromPost(p)
	d.Content = ""
	return d
}

func FromPost(p models.Post) PostDTO {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	d := PostDTO{
		ID:              p.ID.Hex(),
		Title:           p.Title,
		Slug:            p.Slug,
		Excerpt:         p.Excerpt,
		Content:         p.Content,
		Tags:            tags,
		CoverImageURL:   p.CoverImageURL,
		AuthorID:        p.AuthorID,
		Published:       p.Published,
		ReadingTime:     p.ReadingTime,
		ReadingTimeText: timeutil.ReadingTimeText(p.ReadingTime),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		PublishedDate:   timeutil.FormatDate(p.CreatedAt),
		RelativeTime:    timeutil.FormatRelativeTime(p.CreatedAt),
		SEODate:         timeutil.FormatDateForSEO(p.CreatedAt),
	}
	if p.CoverImageURL != "" {
		d.CoverImageThumb = imagecdn.OptimizedURL(p.CoverImageURL, coverThumbWidth, 0)
	}
	return d
}

func FromPosts(posts []models.Post, summary bool) []PostDTO {
	out := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		if summary {
			out = append(out, PostSummaryDTO(p))
		} else {
			out = append(out, FromPost(p))
		}
	}
	return out
}

// AdjacentPostsDTO 는 이전/다음 글 링크다. 없으면 null.
type AdjacentPostsDTO struct {
	Previous *PostLinkDTO `json:"previous"`
	Next     *PostLinkDTO `json:"next"`
}

type PostLinkDTO struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func PostLink(p *models.Post) *PostLinkDTO {
	if p == nil {
		return nil
	}
	return &PostLinkDTO{Title: p.Title, Slug: p.Slug}
}
