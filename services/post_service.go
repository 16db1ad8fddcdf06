package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"folio/config"
	"folio/eventbus"
	"folio/events"
	"folio/logger"
	"folio/models"
	"folio/repositories"
	"folio/slug"
	"folio/timeutil"
	"folio/validation"
)

// PostStore 는 posts 컬렉션 접근을 추상화한다.
// repositories.PostRepository(Mongo)와 inmemory.PostStore 가 구현한다.
type PostStore interface {
	FindPublished(ctx context.Context, q repositories.PublishedQuery) ([]models.Post, error)
	FindByAuthor(ctx context.Context, q repositories.AuthorQuery) ([]models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindPublishedBefore(ctx context.Context, t time.Time) (*models.Post, error)
	FindPublishedAfter(ctx context.Context, t time.Time) (*models.Post, error)
	SlugsWithPrefix(ctx context.Context, base string) ([]string, error)
	Insert(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, id primitive.ObjectID, c repositories.PostChanges) (*models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// EventPublisher 는 eventbus.EventBus 중 발행 기능만 필요로 한다.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event eventbus.Event) error
}

// PostService 는 포스트 CRUD 와 목록/페이지네이션 규칙을 담당한다.
//
//   - store 가 nil 이면 모든 연산이 ErrNotInitialized 로 실패한다.
//   - drafts, bus 는 선택이며 nil 이면 해당 부수 효과를 건너뛴다.
type PostService struct {
	store  PostStore
	drafts DraftStore
	bus    EventPublisher
	cfg    config.PostsConfig
	source string
	now    func() time.Time
}

func NewPostService(store PostStore, drafts DraftStore, bus EventPublisher, cfg config.PostsConfig) *PostService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.AdminPageSize <= 0 {
		cfg.AdminPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &PostService{
		store:  store,
		drafts: drafts,
		bus:    bus,
		cfg:    cfg,
		source: "api",
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// WithSource 는 발행 이벤트의 source 필드를 바꾼다. (예: "folioctl")
func (s *PostService) WithSource(source string) *PostService {
	s.source = source
	return s
}

type ListPublishedInput struct {
	Tag    string
	Search string
	Limit  int
	Cursor string
}

// PostPage 는 커서 기반 페이지다.
// Search 가 주어지면 페이지를 자른 뒤 걸러내므로 len(Posts) < limit 이어도 HasMore 일 수 있다.
type PostPage struct {
	Posts      []models.Post
	Limit      int
	NextCursor string
	HasMore    bool
}

type AdjacentPosts struct {
	Previous *models.Post
	Next     *models.Post
}

func (s *PostService) limit(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	return min(requested, s.cfg.MaxPageSize)
}

func decodeCursor(token string) (*repositories.Cursor, error) {
	c, err := repositories.DecodeCursor(token)
	if err != nil {
		return nil, newValidationError(validation.FieldError{Path: "cursor", Message: "Invalid cursor"})
	}
	return c, nil
}

// paginate 는 limit+1 개로 조회한 결과에서 다음 페이지 여부와 커서를 계산한다.
func paginate(rows []models.Post, limit int, sortKey func(models.Post) time.Time) *PostPage {
	page := &PostPage{Posts: rows, Limit: limit}
	if len(rows) > limit {
		page.Posts = rows[:limit]
		page.HasMore = true
	}
	if page.HasMore && len(page.Posts) > 0 {
		last := page.Posts[len(page.Posts)-1]
		page.NextCursor = repositories.Cursor{At: sortKey(last), ID: last.ID}.Encode()
	}
	return page
}

// ListPublished 는 공개 포스트를 created_at 내림차순으로 반환한다.
func (s *PostService) ListPublished(ctx context.Context, in ListPublishedInput) (*PostPage, error) {
	if s.store == nil {
		return nil, ErrNotInitialized
	}
	limit := s.limit(in.Limit, s.cfg.PageSize)
	after, err := decodeCursor(in.Cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.FindPublished(ctx, repositories.PublishedQuery{Tag: in.Tag, Limit: limit + 1, After: after})
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	page := paginate(rows, limit, func(p models.Post) time.Time { return p.CreatedAt })

	if in.Search != "" {
		filtered := make([]models.Post, 0, len(page.Posts))
		for _, p := range page.Posts {
			if p.MatchesSearch(in.Search) {
				filtered = append(filtered, p)
			}
		}
		page.Posts = filtered
	}
	return page, nil
}

// ListForOwner 는 작성자의 모든 포스트(초안 포함)를 updated_at 내림차순으로 반환한다.
func (s *PostService) ListForOwner(ctx context.Context, authorID string, limit int, cursor string) (*PostPage, error) {
	if s.store == nil {
		return nil, ErrNotInitialized
	}
	limit = s.limit(limit, s.cfg.AdminPageSize)
	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.FindByAuthor(ctx, repositories.AuthorQuery{AuthorID: authorID, Limit: limit + 1, After: after})
	if err != nil {
		return nil, fmt.Errorf("list posts for owner: %w", err)
	}
	return paginate(rows, limit, func(p models.Post) time.Time { return p.UpdatedAt }), nil
}

// GetBySlug returns the post with the exact slug, or nil when there is none.
// Unpublished posts are returned too.
func (s *PostService) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if s.store == nil {
		return nil, ErrNotInitialized
	}
	p, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return p, nil
}

// GetPublishedBySlug 는 공개 상세 페이지용이다. 비공개 포스트는 없는 것으로 취급한다.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := s.GetBySlug(ctx, slug)
	if err != nil || p == nil || !p.Published {
		return nil, err
	}
	return p, nil
}

// GetForOwner 는 관리 화면용 단건 조회다. 다른 작성자의 포스트는 ErrNotFound.
func (s *PostService) GetForOwner(ctx context.Context, id, ownerID string) (*models.Post, error) {
	if s.store == nil {
		return nil, ErrNotInitialized
	}
	_, p, err := s.loadOwned(ctx, id, ownerID)
	return p, err
}

// loadOwned 는 id 파싱 실패, 부재, 소유자 불일치를 모두 ErrNotFound 로 돌려준다.
// ownerID 가 비어 있으면 소유자를 확인하지 않는다.
func (s *PostService) loadOwned(ctx context.Context, id, ownerID string) (primitive.ObjectID, *models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, nil, ErrNotFound
	}
	p, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return oid, nil, fmt.Errorf("get post %s: %w", id, err)
	}
	if p == nil || (ownerID != "" && p.AuthorID != ownerID) {
		return oid, nil, ErrNotFound
	}
	return oid, p, nil
}

// Adjacent 는 slug 기준 이전(더 오래된)/다음(더 최신) 공개 포스트를 반환한다.
// 기준 포스트가 없거나 비공개면 ErrNotFound.
func (s *PostService) Adjacent(ctx context.Context, slug string) (*AdjacentPosts, error) {
	anchor, err := s.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if anchor == nil {
		return nil, ErrNotFound
	}

	prev, err := s.store.FindPublishedBefore(ctx, anchor.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get previous post: %w", err)
	}
	next, err := s.store.FindPublishedAfter(ctx, anchor.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get next post: %w", err)
	}
	return &AdjacentPosts{Previous: prev, Next: next}, nil
}

// UniqueSlug 는 title 로 slug 를 만들고 이미 쓰이고 있으면 -1, -2 … 를 붙인다.
func (s *PostService) UniqueSlug(ctx context.Context, title string) (string, error) {
	if s.store == nil {
		return "", ErrNotInitialized
	}
	base := slug.Generate(title, slug.DefaultMaxLength)
	if base == "" {
		return "", newValidationError(validation.FieldError{Path: "title", Message: "Title must contain letters or digits"})
	}
	existing, err := s.store.SlugsWithPrefix(ctx, base)
	if err != nil {
		return "", fmt.Errorf("list slugs: %w", err)
	}
	return slug.EnsureUnique(base, existing), nil
}

// Create 는 새 포스트를 저장한다. slug 가 이미 있으면 ErrConflict.
func (s *PostService) Create(ctx context.Context, in models.PostInput, authorID string) (*models.Post, error) {
	if s.store == nil {
		return nil, ErrNotInitialized
	}

	in.Normalize()
	fields := validation.PostInput(in)
	if authorID == "" {
		fields = append(fields, validation.FieldError{Path: "author_id", Message: "Author ID is required"})
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields...)
	}

	existing, err := s.store.FindBySlug(ctx, in.Slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	now := s.now()
	p := &models.Post{
		Title:         in.Title,
		Slug:          in.Slug,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		Tags:          in.Tags,
		CoverImageURL: in.CoverImageURL,
		AuthorID:      authorID,
		Published:     in.Published,
		ReadingTime:   timeutil.ReadingTime(in.Content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSlug) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	logger.InfoWithFields("post created", logger.Fields{
		"post_id":   p.ID.Hex(),
		"slug":      p.Slug,
		"author_id": authorID,
		"published": p.Published,
	})
	s.publish(ctx, events.NewPostEvent(events.PostCreated, s.source, p))
	if p.Published {
		s.publish(ctx, events.NewPostEvent(events.PostPublished, s.source, p))
	}
	return p, nil
}

// Update 는 patch 의 non-nil 필드만 반영하고 updated_at 을 항상 갱신한다.
// ownerID 가 주어지면 해당 작성자의 포스트만 수정할 수 있고, 그 작성자의 초안은 폐기된다.
func (s *PostService) Update(ctx context.Context, id string, patch models.PostPatch, ownerID string) (*models.Post, error) {
	if s.store == nil {
		return nil, ErrNotInitialized
	}

	patch.Normalize()
	if fields := validation.PostPatch(patch); len(fields) > 0 {
		return nil, newValidationError(fields...)
	}

	oid, current, err := s.loadOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if patch.Slug != nil && *patch.Slug != current.Slug {
		existing, err := s.store.FindBySlug(ctx, *patch.Slug)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if existing != nil && existing.ID != oid {
			return nil, ErrConflict
		}
	}

	changes := repositories.PostChanges{
		Title:         patch.Title,
		Slug:          patch.Slug,
		Excerpt:       patch.Excerpt,
		Content:       patch.Content,
		Tags:          patch.Tags,
		CoverImageURL: patch.CoverImageURL,
		Published:     patch.Published,
		UpdatedAt:     s.now(),
	}
	if patch.Content != nil {
		rt := timeutil.ReadingTime(*patch.Content)
		changes.ReadingTime = &rt
	}

	updated, err := s.store.Update(ctx, oid, changes)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateSlug) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}
	if updated == nil {
		// 조회와 갱신 사이에 삭제됨
		return nil, ErrNotFound
	}

	if ownerID != "" && s.drafts != nil {
		if err := s.drafts.Delete(ctx, oid, ownerID); err != nil {
			logger.WarnWithFields("failed to discard draft after update", logger.Fields{
				"post_id": id,
				"error":   err.Error(),
			})
		}
	}

	logger.InfoWithFields("post updated", logger.Fields{"post_id": id, "slug": updated.Slug})
	ev := events.NewPostEvent(events.PostUpdated, s.source, updated)
	if current.CoverImageURL != updated.CoverImageURL {
		ev.PreviousCoverImageURL = current.CoverImageURL
	}
	s.publish(ctx, ev)
	if !current.Published && updated.Published {
		s.publish(ctx, events.NewPostEvent(events.PostPublished, s.source, updated))
	}
	return updated, nil
}

// Delete 는 포스트를 삭제한다. 없으면 쓰기 없이 ErrNotFound.
// 커버 이미지 정리는 post.deleted 이벤트를 받은 워커가 수행하며 실패해도 삭제는 유지된다.
func (s *PostService) Delete(ctx context.Context, id, ownerID string) error {
	if s.store == nil {
		return ErrNotInitialized
	}

	oid, current, err := s.loadOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}

	removed, err := s.store.Delete(ctx, oid)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if !removed {
		return ErrNotFound
	}

	if s.drafts != nil {
		if err := s.drafts.DeleteByPost(ctx, oid); err != nil {
			logger.WarnWithFields("failed to delete drafts of removed post", logger.Fields{
				"post_id": id,
				"error":   err.Error(),
			})
		}
	}

	logger.InfoWithFields("post deleted", logger.Fields{"post_id": id, "slug": current.Slug})
	s.publish(ctx, events.NewPostEvent(events.PostDeleted, s.source, current))
	return nil
}

// publish 는 이벤트 발행 실패를 로그로만 남긴다. 포스트 연산 결과에는 영향이 없다.
func (s *PostService) publish(ctx context.Context, ev events.PostEvent) {
	if s.bus == nil {
		return
	}
	evt, err := eventbus.NewJSONEvent(ev.ID, ev, 0)
	if err == nil {
		err = s.bus.Publish(ctx, eventbus.TopicPostEvents.Base(), evt)
	}
	if err != nil {
		logger.ErrorWithFields("failed to publish post event", logger.Fields{
			"event_type": string(ev.Type),
			"post_id":    ev.PostID.Hex(),
			"error":      err.Error(),
		})
	}
}
