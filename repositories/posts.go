package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/db"
	"folio/models"
)

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(d *mongo.Database) *PostRepository {
	return &PostRepository{col: d.Collection(db.PostsCollection)}
}

// FindPublished returns published posts ordered by created_at desc, _id desc.
func (r *PostRepository) FindPublished(ctx context.Context, q PublishedQuery) ([]models.Post, error) {
	filter := bson.M{"published": true}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}
	if q.After != nil {
		filter["$or"] = afterCursor("created_at", q.After)
	}
	return r.find(ctx, filter, q.Limit, "created_at")
}

// FindByAuthor returns every post of the author, drafts included,
// ordered by updated_at desc, _id desc.
func (r *PostRepository) FindByAuthor(ctx context.Context, q AuthorQuery) ([]models.Post, error) {
	filter := bson.M{"author_id": q.AuthorID}
	if q.After != nil {
		filter["$or"] = afterCursor("updated_at", q.After)
	}
	return r.find(ctx, filter, q.Limit, "updated_at")
}

func afterCursor(field string, c *Cursor) []bson.M {
	return []bson.M{
		{field: bson.M{"$lt": c.At}},
		{field: c.At, "_id": bson.M{"$lt": c.ID}},
	}
}

func (r *PostRepository) find(ctx context.Context, filter bson.M, limit int, sortField string) ([]models.Post, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: sortField, Value: -1},
		{Key: "_id", Value: -1},
	})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// FindBySlug returns nil without error when no post has the slug.
func (r *PostRepository) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.findOne(ctx, bson.M{"slug": slug}, nil)
}

// FindByID returns nil without error when the post does not exist.
func (r *PostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

// FindPublishedBefore returns the latest published post created strictly before t.
func (r *PostRepository) FindPublishedBefore(ctx context.Context, t time.Time) (*models.Post, error) {
	return r.findOne(ctx,
		bson.M{"published": true, "created_at": bson.M{"$lt": t}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
}

// FindPublishedAfter returns the earliest published post created strictly after t.
func (r *PostRepository) FindPublishedAfter(ctx context.Context, t time.Time) (*models.Post, error) {
	return r.findOne(ctx,
		bson.M{"published": true, "created_at": bson.M{"$gt": t}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
}

func (r *PostRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Post, error) {
	var p models.Post
	var res *mongo.SingleResult
	if opts != nil {
		res = r.col.FindOne(ctx, filter, opts)
	} else {
		res = r.col.FindOne(ctx, filter)
	}
	if err := res.Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SlugsWithPrefix returns base and every base-N slug in use.
func (r *PostRepository) SlugsWithPrefix(ctx context.Context, base string) ([]string, error) {
	filter := bson.M{"slug": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(base) + `(-\d+)?$`}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"slug": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var slugs []string
	for cur.Next(ctx) {
		var doc struct {
			Slug string `bson:"slug"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		slugs = append(slugs, doc.Slug)
	}
	return slugs, cur.Err()
}

// Insert stores p and assigns its ID.
func (r *PostRepository) Insert(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// Update applies changes and returns the updated post, or nil when absent.
func (r *PostRepository) Update(ctx context.Context, id primitive.ObjectID, c PostChanges) (*models.Post, error) {
	set := bson.M{"updated_at": c.UpdatedAt}
	if c.Title != nil {
		set["title"] = *c.Title
	}
	if c.Slug != nil {
		set["slug"] = *c.Slug
	}
	if c.Excerpt != nil {
		set["excerpt"] = *c.Excerpt
	}
	if c.Content != nil {
		set["content"] = *c.Content
	}
	if c.Tags != nil {
		set["tags"] = *c.Tags
	}
	if c.CoverImageURL != nil {
		set["cover_image_url"] = *c.CoverImageURL
	}
	if c.Published != nil {
		set["published"] = *c.Published
	}
	if c.ReadingTime != nil {
		set["reading_time"] = *c.ReadingTime
	}

	var p models.Post
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &p, nil
}

// Delete reports whether a document was removed.
func (r *PostRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
