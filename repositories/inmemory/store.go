// Package inmemory 는 Mongo 없이 동작하는 저장소 구현이다.
// 테스트와 로컬 개발(mongo.uri 미설정 + posts.memory_store: true)에서 사용한다.
package inmemory

import (
	"context"
	"regexp"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"folio/models"
	"folio/repositories"
)

// PostStore 는 PostRepository 와 같은 의미를 메모리에서 제공한다.
// slug 유일성도 uniq_slug 인덱스처럼 쓰기 시점에 강제한다.
type PostStore struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*models.Post
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[primitive.ObjectID]*models.Post)}
}

func clonePost(p *models.Post) models.Post {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

func (s *PostStore) FindPublished(ctx context.Context, q repositories.PublishedQuery) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(q.Limit, q.After, func(p *models.Post) time.Time { return p.CreatedAt }, func(p *models.Post) bool {
		return p.Published && (q.Tag == "" || p.HasTag(q.Tag))
	}), nil
}

func (s *PostStore) FindByAuthor(ctx context.Context, q repositories.AuthorQuery) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(q.Limit, q.After, func(p *models.Post) time.Time { return p.UpdatedAt }, func(p *models.Post) bool {
		return p.AuthorID == q.AuthorID
	}), nil
}

// collect 는 sortKey desc, _id desc 순으로 정렬한 뒤 커서 이후 limit 개를 반환한다.
func (s *PostStore) collect(limit int, after *repositories.Cursor, sortKey func(*models.Post) time.Time, match func(*models.Post) bool) []models.Post {
	matched := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if !match(p) {
			continue
		}
		if after != nil && !after.Follows(sortKey(p), p.ID) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := sortKey(matched[i]), sortKey(matched[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]models.Post, 0, len(matched))
	for _, p := range matched {
		out = append(out, clonePost(p))
	}
	return out
}

func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.Slug == slug {
			c := clonePost(p)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *PostStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	c := clonePost(p)
	return &c, nil
}

func (s *PostStore) FindPublishedBefore(ctx context.Context, t time.Time) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.Post
	for _, p := range s.posts {
		if !p.Published || !p.CreatedAt.Before(t) {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID.Hex() > best.ID.Hex()) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	c := clonePost(best)
	return &c, nil
}

func (s *PostStore) FindPublishedAfter(ctx context.Context, t time.Time) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.Post
	for _, p := range s.posts {
		if !p.Published || !p.CreatedAt.After(t) {
			continue
		}
		if best == nil || p.CreatedAt.Before(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID.Hex() < best.ID.Hex()) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	c := clonePost(best)
	return &c, nil
}

func (s *PostStore) SlugsWithPrefix(ctx context.Context, base string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	re := regexp.MustCompile("^" + regexp.QuoteMeta(base) + `(-\d+)?$`)
	var slugs []string
	for _, p := range s.posts {
		if re.MatchString(p.Slug) {
			slugs = append(slugs, p.Slug)
		}
	}
	return slugs, nil
}

func (s *PostStore) slugTaken(slug string, except primitive.ObjectID) bool {
	for id, p := range s.posts {
		if p.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (s *PostStore) Insert(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(p.Slug, primitive.NilObjectID) {
		return repositories.ErrDuplicateSlug
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	c := clonePost(p)
	s.posts[p.ID] = &c
	return nil
}

func (s *PostStore) Update(ctx context.Context, id primitive.ObjectID, ch repositories.PostChanges) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	if ch.Slug != nil && s.slugTaken(*ch.Slug, id) {
		return nil, repositories.ErrDuplicateSlug
	}

	p := clonePost(cur)
	if ch.Title != nil {
		p.Title = *ch.Title
	}
	if ch.Slug != nil {
		p.Slug = *ch.Slug
	}
	if ch.Excerpt != nil {
		p.Excerpt = *ch.Excerpt
	}
	if ch.Content != nil {
		p.Content = *ch.Content
	}
	if ch.Tags != nil {
		p.Tags = slices.Clone(*ch.Tags)
	}
	if ch.CoverImageURL != nil {
		p.CoverImageURL = *ch.CoverImageURL
	}
	if ch.Published != nil {
		p.Published = *ch.Published
	}
	if ch.ReadingTime != nil {
		p.ReadingTime = *ch.ReadingTime
	}
	p.UpdatedAt = ch.UpdatedAt
	s.posts[id] = &p

	out := clonePost(&p)
	return &out, nil
}

func (s *PostStore) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return false, nil
	}
	delete(s.posts, id)
	return true, nil
}

// Len 은 저장된 포스트 수다. 테스트에서 쓰기 발생 여부를 확인할 때 사용한다.
func (s *PostStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

type draftKey struct {
	postID   primitive.ObjectID
	authorID string
}

type DraftStore struct {
	mu     sync.RWMutex
	drafts map[draftKey]models.Draft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[draftKey]models.Draft)}
}

func (s *DraftStore) Upsert(ctx context.Context, d *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *d
	c.Fields.Tags = slices.Clone(d.Fields.Tags)
	s.drafts[draftKey{d.PostID, d.AuthorID}] = c
	return nil
}

func (s *DraftStore) Find(ctx context.Context, postID primitive.ObjectID, authorID string) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[draftKey{postID, authorID}]
	if !ok {
		return nil, nil
	}
	d.Fields.Tags = slices.Clone(d.Fields.Tags)
	return &d, nil
}

func (s *DraftStore) Delete(ctx context.Context, postID primitive.ObjectID, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, draftKey{postID, authorID})
	return nil
}

func (s *DraftStore) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.drafts {
		if k.postID == postID {
			delete(s.drafts, k)
		}
	}
	return nil
}
