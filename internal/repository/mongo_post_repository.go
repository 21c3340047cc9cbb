package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postCollectionName = "posts"

// MongoPostRepository implements PostRepository on a MongoDB collection.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a post repository backed by db.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		collection: db.Collection(postCollectionName),
	}
}

// EnsureIndexes creates the index used by the sweep query.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_date", Value: 1}}},
		{Keys: bson.D{{Key: "business_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create post indexes: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find post %s: %w", id, err)
	}
	return &post, nil
}

func (r *MongoPostRepository) ListByBusinessID(ctx context.Context, businessID string) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"business_id": businessID}, opts)
}

func (r *MongoPostRepository) ListByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	return r.find(ctx, bson.M{"status": status})
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepository) Claim(ctx context.Context, id string, from ...string) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	update := bson.M{
		"$set": bson.M{
			"status":     models.PostStatusPublishing,
			"claimed_at": now,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim post %s: %w", id, err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoPostRepository) MarkPublished(ctx context.Context, id, remotePostID string, publishedAt time.Time) error {
	set := bson.M{
		"status":         models.PostStatusPublished,
		"published_date": publishedAt,
		"updated_at":     time.Now().UTC(),
	}
	if remotePostID != "" {
		set["remote_post_id"] = remotePostID
	}
	update := bson.M{
		"$set":   set,
		"$unset": bson.M{"failure_reason": "", "claimed_at": ""},
	}
	return r.finish(ctx, id, update)
}

func (r *MongoPostRepository) MarkFailed(ctx context.Context, id, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"status":         models.PostStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		},
		"$unset": bson.M{"published_date": "", "claimed_at": ""},
	}
	return r.finish(ctx, id, update)
}

func (r *MongoPostRepository) finish(ctx context.Context, id string, update bson.M) error {
	filter := bson.M{"_id": id, "status": models.PostStatusPublishing}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrPostNotClaimed
	}
	return nil
}

func (r *MongoPostRepository) Reschedule(ctx context.Context, id string, scheduledDate time.Time) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": []string{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":         models.PostStatusScheduled,
			"scheduled_date": scheduledDate,
			"updated_at":     time.Now().UTC(),
		},
		"$unset": bson.M{"failure_reason": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule post %s: %w", id, err)
	}
	return result.MatchedCount == 1, nil
}

func (r *MongoPostRepository) FailStaleClaims(ctx context.Context, claimedBefore time.Time, reason string) (int64, error) {
	filter := bson.M{
		"status":     models.PostStatusPublishing,
		"claimed_at": bson.M{"$lt": claimedBefore},
	}
	update := bson.M{
		"$set": bson.M{
			"status":         models.PostStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		},
		"$unset": bson.M{"claimed_at": ""},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale claims: %w", err)
	}
	return result.ModifiedCount, nil
}
