package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/config"
	"folio/eventbus"
	"folio/events"
	"folio/models"
	"folio/repositories/inmemory"
)

const author = "author-1"

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PostEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, topic string, evt eventbus.Event) error {
	ev, err := eventbus.DecodeJSON[events.PostEvent](evt)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc    *PostService
	store  *inmemory.PostStore
	drafts *inmemory.DraftStore
	bus    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inmemory.NewPostStore()
	drafts := inmemory.NewDraftStore()
	bus := &recordingPublisher{}
	svc := NewPostService(store, drafts, bus, config.PostsConfig{PageSize: 2, AdminPageSize: 2, MaxPageSize: 5})

	// 호출마다 1분씩 증가하는 시계
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return &fixture{svc: svc, store: store, drafts: drafts, bus: bus}
}

func input(slug string, published bool) models.PostInput {
	return models.PostInput{
		Title:     "Title " + slug,
		Slug:      slug,
		Excerpt:   "Excerpt for " + slug,
		Content:   "some content",
		Tags:      []string{"go"},
		Published: published,
	}
}

func (f *fixture) create(t *testing.T, slug string, published bool) *models.Post {
	t.Helper()
	p, err := f.svc.Create(context.Background(), input(slug, published), author)
	require.NoError(t, err)
	return p
}

func slugs(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := input("hello-world", false)
	in.Content = strings.Repeat("word ", 401)
	p, err := f.svc.Create(ctx, in, author)
	require.NoError(t, err)

	assert.False(t, p.ID.IsZero())
	assert.Equal(t, 3, p.ReadingTime)
	assert.Equal(t, author, p.AuthorID)
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))
	assert.Equal(t, []events.EventType{events.PostCreated}, f.bus.types())
}

func TestCreateConflictOnExistingSlug(t *testing.T) {
	f := newFixture(t)
	f.create(t, "taken", true)

	_, err := f.svc.Create(context.Background(), input("taken", false), "someone-else")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, f.store.Len())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), models.PostInput{Title: "  "}, "")
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	paths := map[string]bool{}
	for _, fe := range verr.Fields {
		paths[fe.Path] = true
	}
	for _, want := range []string{"title", "slug", "excerpt", "content", "author_id"} {
		assert.True(t, paths[want], "missing field error for %s", want)
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestListPublishedExcludesUnpublished(t *testing.T) {
	f := newFixture(t)
	f.create(t, "visible", true)
	f.create(t, "hidden", false)

	page, err := f.svc.ListPublished(context.Background(), ListPublishedInput{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"visible"}, slugs(page.Posts))
	for _, p := range page.Posts {
		assert.True(t, p.Published)
	}
}

func TestListPublishedPagination(t *testing.T) {
	f := newFixture(t)
	for _, s := range []string{"p1", "p2", "p3"} {
		f.create(t, s, true)
	}
	ctx := context.Background()

	page, err := f.svc.ListPublished(ctx, ListPublishedInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2"}, slugs(page.Posts))
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.ListPublished(ctx, ListPublishedInput{Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, slugs(page.Posts))
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)

	_, err = f.svc.ListPublished(ctx, ListPublishedInput{Cursor: "not-a-cursor"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListPublishedLimitIsCapped(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		f.create(t, "p"+string(rune('a'+i)), true)
	}

	page, err := f.svc.ListPublished(context.Background(), ListPublishedInput{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 5)
	assert.True(t, page.HasMore)
}

func TestListPublishedSearchFiltersWithinPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	match := input("old-match", true)
	match.Title = "Concurrency in Go"
	_, err := f.svc.Create(ctx, match, author)
	require.NoError(t, err)
	f.create(t, "newer-1", true)
	f.create(t, "newer-2", true)

	// 첫 페이지(newer-2, newer-1)에는 일치 항목이 없지만 다음 페이지가 남아 있다.
	page, err := f.svc.ListPublished(ctx, ListPublishedInput{Search: "CONCURRENCY"})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.True(t, page.HasMore)

	page, err = f.svc.ListPublished(ctx, ListPublishedInput{Search: "concurrency", Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"old-match"}, slugs(page.Posts))
}

func TestListPublishedByTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rust := input("rusty", true)
	rust.Tags = []string{"rust"}
	_, err := f.svc.Create(ctx, rust, author)
	require.NoError(t, err)
	f.create(t, "gopher", true)

	page, err := f.svc.ListPublished(ctx, ListPublishedInput{Tag: "rust"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rusty"}, slugs(page.Posts))
}

func TestGetBySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "draft", false)

	p, err := f.svc.GetBySlug(ctx, "draft")
	require.NoError(t, err)
	require.NotNil(t, p)

	p, err = f.svc.GetPublishedBySlug(ctx, "draft")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = f.svc.GetBySlug(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAdjacent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "first", true)
	f.create(t, "hidden", false)
	f.create(t, "middle", true)
	f.create(t, "last", true)

	adj, err := f.svc.Adjacent(ctx, "middle")
	require.NoError(t, err)
	require.NotNil(t, adj.Previous)
	require.NotNil(t, adj.Next)
	assert.Equal(t, "first", adj.Previous.Slug)
	assert.Equal(t, "last", adj.Next.Slug)

	adj, err = f.svc.Adjacent(ctx, "last")
	require.NoError(t, err)
	assert.Nil(t, adj.Next)

	_, err = f.svc.Adjacent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateContentRecomputesReadingTimeAndKeepsSlug(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "stable", false)
	require.Equal(t, 1, p.ReadingTime)

	updated, err := f.svc.Update(context.Background(), p.ID.Hex(), models.PostPatch{
		Content: ptr(strings.Repeat("word ", 401)),
	}, author)
	require.NoError(t, err)

	assert.Equal(t, 3, updated.ReadingTime)
	assert.Equal(t, "stable", updated.Slug)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(p.CreatedAt))
	assert.Equal(t, p.AuthorID, updated.AuthorID)
}

func TestUpdateSlugUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "a", false)
	f.create(t, "b", false)

	_, err := f.svc.Update(ctx, a.ID.Hex(), models.PostPatch{Slug: ptr("b")}, author)
	assert.ErrorIs(t, err, ErrConflict)

	// 자기 자신의 slug 는 충돌이 아니다.
	_, err = f.svc.Update(ctx, a.ID.Hex(), models.PostPatch{Slug: ptr("a"), Title: ptr("New")}, author)
	require.NoError(t, err)
}

func TestUpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "mine", false)

	_, err := f.svc.Update(ctx, p.ID.Hex(), models.PostPatch{}, author)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Update(ctx, "000000000000000000000000", models.PostPatch{Title: ptr("x")}, author)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Update(ctx, "zzz", models.PostPatch{Title: ptr("x")}, author)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Update(ctx, p.ID.Hex(), models.PostPatch{Title: ptr("x")}, "intruder")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePublishEmitsEventsAndDiscardsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "pub", false)
	require.NoError(t, f.drafts.Upsert(ctx, &models.Draft{PostID: p.ID, AuthorID: author}))

	in := models.PostPatch{Published: ptr(true), CoverImageURL: ptr("https://cdn.example.com/new.png")}
	_, err := f.svc.Update(ctx, p.ID.Hex(), in, author)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.PostCreated, events.PostUpdated, events.PostPublished}, f.bus.types())
	d, err := f.drafts.Find(ctx, p.ID, author)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestUpdateReportsReplacedCover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := input("cover", true)
	in.CoverImageURL = "https://cdn.example.com/old.png"
	p, err := f.svc.Create(ctx, in, author)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, p.ID.Hex(), models.PostPatch{CoverImageURL: ptr("")}, author)
	require.NoError(t, err)

	last := f.bus.events[len(f.bus.events)-1]
	assert.Equal(t, events.PostUpdated, last.Type)
	assert.Equal(t, "https://cdn.example.com/old.png", last.OrphanedImage())
}

func TestDeleteMissingPerformsNoWrite(t *testing.T) {
	f := newFixture(t)
	f.create(t, "keep", true)
	before := len(f.bus.types())

	err := f.svc.Delete(context.Background(), "000000000000000000000000", author)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.store.Len())
	assert.Len(t, f.bus.types(), before)
}

func TestDeleteOtherAuthorsPost(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "keep", true)

	err := f.svc.Delete(context.Background(), p.ID.Hex(), "intruder")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, f.store.Len())
}

func TestCreatePublishDeleteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, input("a", false), author)
	require.NoError(t, err)

	owned, err := f.svc.ListForOwner(ctx, author, 10, "")
	require.NoError(t, err)
	assert.Contains(t, slugs(owned.Posts), "a")

	public, err := f.svc.ListPublished(ctx, ListPublishedInput{Limit: 5})
	require.NoError(t, err)
	assert.NotContains(t, slugs(public.Posts), "a")

	_, err = f.svc.Update(ctx, a.ID.Hex(), models.PostPatch{Published: ptr(true)}, author)
	require.NoError(t, err)

	public, err = f.svc.ListPublished(ctx, ListPublishedInput{Limit: 5})
	require.NoError(t, err)
	assert.Contains(t, slugs(public.Posts), "a")

	require.NoError(t, f.svc.Delete(ctx, a.ID.Hex(), author))

	owned, err = f.svc.ListForOwner(ctx, author, 10, "")
	require.NoError(t, err)
	assert.NotContains(t, slugs(owned.Posts), "a")
	public, err = f.svc.ListPublished(ctx, ListPublishedInput{Limit: 5})
	require.NoError(t, err)
	assert.NotContains(t, slugs(public.Posts), "a")

	assert.Equal(t, []events.EventType{
		events.PostCreated, events.PostUpdated, events.PostPublished, events.PostDeleted,
	}, f.bus.types())
}

func TestListForOwnerOrdersByUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.create(t, "old", false)
	f.create(t, "new", true)
	_, err := f.svc.Update(ctx, old.ID.Hex(), models.PostPatch{Title: ptr("touched")}, author)
	require.NoError(t, err)

	page, err := f.svc.ListForOwner(ctx, author, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "new"}, slugs(page.Posts))

	other, err := f.svc.ListForOwner(ctx, "nobody", 0, "")
	require.NoError(t, err)
	assert.Empty(t, other.Posts)
}

func TestUniqueSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "hello-world", true)

	s, err := f.svc.UniqueSlug(ctx, "Hello, World!")
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", s)

	_, err = f.svc.UniqueSlug(ctx, "!!!")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOperationsFailWhenStoreIsMissing(t *testing.T) {
	svc := NewPostService(nil, nil, nil, config.PostsConfig{})
	ctx := context.Background()

	_, err := svc.ListPublished(ctx, ListPublishedInput{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = svc.ListForOwner(ctx, author, 0, "")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = svc.GetBySlug(ctx, "a")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = svc.Adjacent(ctx, "a")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = svc.Create(ctx, input("a", true), author)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = svc.Update(ctx, "a", models.PostPatch{Title: ptr("x")}, author)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, svc.Delete(ctx, "a", author), ErrNotInitialized)
}
