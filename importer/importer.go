// Package importer 는 Markdown 파일과 외부 피드를 포스트로 가져온다.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"folio/feeder"
	"folio/frontmatter"
	"folio/logger"
	"folio/models"
	"folio/parser"
	"folio/slug"
	"folio/timeutil"
	"folio/validation"
)

const (
	// MarkdownPattern 은 ImportDir 이 찾는 파일 패턴이다.
	MarkdownPattern = "**/*.md"

	FallbackExcerptLength = 150
	maxTags               = 10
	maxTagLength          = 50
	maxExcerptRunes       = 500
)

var (
	ErrMissingTitle = errors.New("importer: document has no title")
	// ErrSlugTaken 은 같은 slug 의 포스트가 다른 작성자 소유일 때 반환된다.
	ErrSlugTaken = errors.New("importer: slug belongs to another author")
	ErrNoSlug    = errors.New("importer: cannot derive a slug from the title")
)

// PostWriter 는 services.PostService 중 가져오기에 필요한 부분이다.
type PostWriter interface {
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	UniqueSlug(ctx context.Context, title string) (string, error)
	Create(ctx context.Context, in models.PostInput, authorID string) (*models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch, ownerID string) (*models.Post, error)
}

type ExcerptGenerator interface {
	Excerpt(ctx context.Context, text string) (string, error)
}

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Skipped Action = "skipped"
)

type Result struct {
	Source string
	Slug   string
	PostID string
	Action Action
}

type Importer struct {
	posts    PostWriter
	authorID string
	excerpts ExcerptGenerator
}

func New(posts PostWriter, authorID string) *Importer {
	return &Importer{posts: posts, authorID: authorID}
}

// WithExcerpts 는 excerpt 가 없는 문서에 AI 요약을 사용하게 한다.
func (im *Importer) WithExcerpts(gen ExcerptGenerator) *Importer {
	im.excerpts = gen
	return im
}

// FallbackExcerpt 는 본문 앞 150자에 "..." 를 붙인다.
func FallbackExcerpt(content string) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) > FallbackExcerptLength {
		r = r[:FallbackExcerptLength]
	}
	return strings.TrimSpace(string(r)) + "..."
}

func (im *Importer) excerpt(ctx context.Context, given, content string) string {
	if given = strings.TrimSpace(given); given != "" {
		return given
	}
	if im.excerpts != nil {
		generated, err := im.excerpts.Excerpt(ctx, content)
		if err == nil {
			return generated
		}
		logger.WarnWithFields("excerpt generation failed, using fallback", logger.Fields{"error": err.Error()})
	}
	return FallbackExcerpt(content)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > maxTagLength || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

// ImportFile 은 Markdown 파일 하나를 가져온다.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Source: path}, err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return Result{Source: path}, fmt.Errorf("%s: %w", path, err)
	}
	res, err := im.ImportDocument(ctx, doc, path)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ImportDocument 는 같은 slug 의 내 포스트가 있으면 수정하고, 없으면 만든다.
// slug 가 없으면 title 로 만들며, 다른 작성자가 쓰고 있으면 -1, -2 … 를 붙인다.
// 수정할 때 excerpt 가 비어 있으면 저장된 excerpt 를 유지한다.
func (im *Importer) ImportDocument(ctx context.Context, doc *frontmatter.Document, source string) (Result, error) {
	res := Result{Source: source}

	title := strings.TrimSpace(doc.Meta.Title)
	if title == "" {
		title = doc.Heading()
	}
	if title == "" {
		return res, ErrMissingTitle
	}

	explicitSlug := strings.TrimSpace(doc.Meta.Slug)
	postSlug := explicitSlug
	if postSlug == "" {
		postSlug = slug.Generate(title, slug.DefaultMaxLength)
	}
	if postSlug == "" {
		return res, ErrNoSlug
	}

	existing, err := im.posts.GetBySlug(ctx, postSlug)
	if err != nil {
		return res, err
	}
	if existing != nil && existing.AuthorID != im.authorID {
		if explicitSlug != "" {
			return res, fmt.Errorf("%w: %s", ErrSlugTaken, postSlug)
		}
		if postSlug, err = im.posts.UniqueSlug(ctx, title); err != nil {
			return res, err
		}
		existing = nil
	}
	res.Slug = postSlug

	tags := normalizeTags(doc.Meta.Tags)
	if existing == nil {
		p, err := im.posts.Create(ctx, models.PostInput{
			Title:         title,
			Slug:          postSlug,
			Excerpt:       im.excerpt(ctx, doc.Meta.Excerpt, doc.Body),
			Content:       doc.Body,
			Tags:          tags,
			CoverImageURL: doc.Meta.CoverImage,
			Published:     doc.Meta.Published,
		}, im.authorID)
		if err != nil {
			return res, err
		}
		res.PostID, res.Action = p.ID.Hex(), Created
		return res, nil
	}

	patch := diff(existing, doc, title, tags)
	res.PostID = existing.ID.Hex()
	if patch.IsEmpty() {
		res.Action = Skipped
		return res, nil
	}
	if _, err := im.posts.Update(ctx, res.PostID, patch, im.authorID); err != nil {
		return res, err
	}
	res.Action = Updated
	return res, nil
}

// diff 는 바뀐 필드만 담은 patch 를 만든다. 변경이 없으면 빈 patch 다.
func diff(p *models.Post, doc *frontmatter.Document, title string, tags []string) models.PostPatch {
	var patch models.PostPatch
	if title != p.Title {
		patch.Title = &title
	}
	if excerpt := strings.TrimSpace(doc.Meta.Excerpt); excerpt != "" && excerpt != p.Excerpt {
		patch.Excerpt = &excerpt
	}
	if doc.Body != p.Content {
		patch.Content = &doc.Body
	}
	if !slices.Equal(tags, p.Tags) {
		patch.Tags = &tags
	}
	if cover := strings.TrimSpace(doc.Meta.CoverImage); cover != p.CoverImageURL {
		patch.CoverImageURL = &cover
	}
	if doc.Meta.Published != p.Published {
		published := doc.Meta.Published
		patch.Published = &published
	}
	return patch
}

// ImportDir 은 root 아래의 모든 Markdown 파일을 이름순으로 가져온다.
// 실패한 파일이 있어도 나머지는 계속 처리하고 에러를 모아 돌려준다.
func (im *Importer) ImportDir(ctx context.Context, root string) ([]Result, error) {
	matches, err := doublestar.Glob(os.DirFS(root), MarkdownPattern)
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)

	var (
		results []Result
		errs    []error
	)
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := im.ImportFile(ctx, filepath.Join(root, filepath.FromSlash(m)))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// ImportFeed 는 피드 항목을 비공개 포스트로 가져온다. 이미 있는 slug 는 건너뛴다.
func (im *Importer) ImportFeed(ctx context.Context, feed *feeder.Feed) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)
	for _, item := range feed.Items {
		res, err := im.importFeedItem(ctx, item)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.Link, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (im *Importer) importFeedItem(ctx context.Context, item feeder.FeedItem) (Result, error) {
	res := Result{Source: item.Link}

	body := item.Content
	if body == "" {
		body = item.Description
	}
	article, err := parser.ParseArticle(body, item.Link)
	if err != nil {
		return res, err
	}

	title := item.Title
	if title == "" {
		title = article.Title
	}
	if title == "" {
		return res, ErrMissingTitle
	}

	postSlug := slug.Generate(title, slug.DefaultMaxLength)
	if postSlug == "" {
		return res, ErrNoSlug
	}
	existing, err := im.posts.GetBySlug(ctx, postSlug)
	if err != nil {
		return res, err
	}
	if existing != nil {
		res.Slug, res.PostID, res.Action = postSlug, existing.ID.Hex(), Skipped
		return res, nil
	}

	// 전문이 따로 있을 때만 description 을 excerpt 로 쓴다.
	var given string
	if item.Content != "" {
		given = strings.Join(strings.Fields(timeutil.StripTags(item.Description)), " ")
		if r := []rune(given); len(r) > maxExcerptRunes {
			given = string(r[:maxExcerptRunes-3]) + "..."
		}
	}

	cover := item.Image
	if cover == "" || !validation.IsCoverImageURL(cover) {
		cover = article.TopImage
	}
	if !validation.IsCoverImageURL(cover) {
		cover = ""
	}

	p, err := im.posts.Create(ctx, models.PostInput{
		Title:         title,
		Slug:          postSlug,
		Excerpt:       im.excerpt(ctx, given, article.PlainTextContent),
		Content:       article.PlainTextContent,
		Tags:          normalizeTags(item.Categories),
		CoverImageURL: cover,
	}, im.authorID)
	if err != nil {
		return res, err
	}
	res.Slug, res.PostID, res.Action = p.Slug, p.ID.Hex(), Created
	return res, nil
}
