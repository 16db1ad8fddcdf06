package main

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"folio/config"
	"folio/db"
	"folio/logger"
	"folio/repositories"
	"folio/repositories/inmemory"
	"folio/services"
)

type stores struct {
	posts  services.PostStore
	drafts services.DraftStore
	ping   func(ctx context.Context) error
}

// openStores 는 MongoDB 저장소를 연다. uri 가 없으면 posts.memory_store 에 따라
// 메모리 저장소를 쓰거나, 저장소 없이 기동해 포스트 API 가 503 을 반환하게 한다.
func openStores(ctx context.Context, cfg config.PostsConfig) (stores, error) {
	err := db.Init(ctx)
	switch {
	case err == nil:
		return stores{
			posts:  repositories.NewPostRepository(db.Database()),
			drafts: repositories.NewDraftRepository(db.Database()),
			ping:   func(ctx context.Context) error { return db.Client().Ping(ctx, readpref.Primary()) },
		}, nil
	case !errors.Is(err, db.ErrNoURI):
		return stores{}, err
	case cfg.MemoryStore:
		logger.Log.Warn("mongo.uri 미설정: 메모리 저장소로 기동합니다. 재시작하면 데이터가 사라집니다.")
		return stores{
			posts:  inmemory.NewPostStore(),
			drafts: inmemory.NewDraftStore(),
			ping:   func(context.Context) error { return nil },
		}, nil
	default:
		logger.Log.Warn("mongo.uri 미설정: 포스트 API 는 503 을 반환합니다.")
		return stores{}, nil
	}
}
