package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"folio/config"
	"folio/logger"
)

const (
	PostsCollection  = "posts"
	DraftsCollection = "drafts"
)

// ErrNoURI 는 mongo.uri 가 비어 있을 때 반환된다. 이 경우 저장소는 미초기화 상태로 남는다.
var ErrNoURI = errors.New("mongo uri is not configured")

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
	initErr    error
)

// Init initializes the global Mongo client and database using config values.
// Later calls return the result of the first one.
func Init(ctx context.Context) error {
	clientOnce.Do(func() {
		cfg := config.GetConfig()
		if cfg.Mongo.URI == "" {
			initErr = ErrNoURI
			return
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			initErr = err
			return
		}
		// Ping to verify connection
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}

		d := cl.Database(cfg.Mongo.Database)
		if err := EnsureIndexes(ctx, d); err != nil {
			initErr = err
			return
		}
		client = cl
		db = d
		logger.InfoWithFields("MongoDB connected and indexes ensured", logger.Fields{
			"database": cfg.Mongo.Database,
		})
	})
	return initErr
}

func Client() *mongo.Client { return client }

// Database 는 Init 이 성공하기 전까지 nil 을 반환한다.
func Database() *mongo.Database { return db }

func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes every query path relies on.
func EnsureIndexes(ctx context.Context, d *mongo.Database) error {
	posts := []mongo.IndexModel{
		// slug 유일성은 인덱스가 최종 보장한다.
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("uniq_slug").SetUnique(true),
		},
		// 공개 목록: published == true, created_at desc, _id desc
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_published_created_at"),
		},
		// 작성자 목록: author_id, updated_at desc
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_author_updated_at"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("idx_tags"),
		},
	}
	if _, err := d.Collection(PostsCollection).Indexes().CreateMany(ctx, posts); err != nil {
		return err
	}

	if _, err := d.Collection(DraftsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "author_id", Value: 1}},
		Options: options.Index().SetName("uniq_post_author").SetUnique(true),
	}); err != nil {
		return err
	}
	return nil
}
