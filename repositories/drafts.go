package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/db"
	"folio/models"
)

type DraftRepository struct {
	col *mongo.Collection
}

func NewDraftRepository(d *mongo.Database) *DraftRepository {
	return &DraftRepository{col: d.Collection(db.DraftsCollection)}
}

// Upsert stores the draft keyed by (post_id, author_id).
func (r *DraftRepository) Upsert(ctx context.Context, d *models.Draft) error {
	filter := bson.M{"post_id": d.PostID, "author_id": d.AuthorID}
	update := bson.M{
		"$set": bson.M{
			"fields":   d.Fields,
			"saved_at": d.SavedAt,
		},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Find returns nil without error when no draft exists.
func (r *DraftRepository) Find(ctx context.Context, postID primitive.ObjectID, authorID string) (*models.Draft, error) {
	var d models.Draft
	err := r.col.FindOne(ctx, bson.M{"post_id": postID, "author_id": authorID}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DraftRepository) Delete(ctx context.Context, postID primitive.ObjectID, authorID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"post_id": postID, "author_id": authorID})
	return err
}

// DeleteByPost removes every author's draft of the post.
func (r *DraftRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"post_id": postID})
	return err
}
