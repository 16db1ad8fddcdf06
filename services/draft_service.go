package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"folio/models"
)

// DraftStore 는 drafts 컬렉션 접근을 추상화한다.
type DraftStore interface {
	Upsert(ctx context.Context, d *models.Draft) error
	Find(ctx context.Context, postID primitive.ObjectID, authorID string) (*models.Draft, error)
	Delete(ctx context.Context, postID primitive.ObjectID, authorID string) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) error
}

// DraftService 는 편집 중인 포스트의 자동 저장본을 관리한다.
// 초안은 작성자 본인의 기존 포스트에만 저장할 수 있다.
type DraftService struct {
	drafts DraftStore
	posts  PostStore
	now    func() time.Time
}

func NewDraftService(drafts DraftStore, posts PostStore) *DraftService {
	return &DraftService{
		drafts: drafts,
		posts:  posts,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *DraftService) ownedPost(ctx context.Context, authorID, postID string) (primitive.ObjectID, error) {
	if s.drafts == nil || s.posts == nil {
		return primitive.NilObjectID, ErrNotInitialized
	}
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	p, err := s.posts.FindByID(ctx, oid)
	if err != nil {
		return oid, fmt.Errorf("get post %s: %w", postID, err)
	}
	if p == nil || p.AuthorID != authorID {
		return oid, ErrNotFound
	}
	return oid, nil
}

// SaveDraft 는 (post, author) 당 하나의 초안을 덮어쓴다.
func (s *DraftService) SaveDraft(ctx context.Context, authorID, postID string, fields models.DraftFields) (*models.Draft, error) {
	oid, err := s.ownedPost(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}
	d := &models.Draft{
		PostID:   oid,
		AuthorID: authorID,
		Fields:   fields,
		SavedAt:  s.now(),
	}
	if err := s.drafts.Upsert(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// GetDraft 는 초안이 없으면 nil 을 반환한다.
func (s *DraftService) GetDraft(ctx context.Context, authorID, postID string) (*models.Draft, error) {
	oid, err := s.ownedPost(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}
	d, err := s.drafts.Find(ctx, oid, authorID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

// DiscardDraft 는 초안이 없어도 성공한다.
func (s *DraftService) DiscardDraft(ctx context.Context, authorID, postID string) error {
	if s.drafts == nil {
		return ErrNotInitialized
	}
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	if err := s.drafts.Delete(ctx, oid, authorID); err != nil {
		return fmt.Errorf("discard draft: %w", err)
	}
	return nil
}
