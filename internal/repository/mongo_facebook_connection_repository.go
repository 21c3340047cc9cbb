package repository

import (
	"context"
	"fmt"

	"github.com/maheshrc27/postflow/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const facebookConnectionCollectionName = "facebook_connections"

// MongoFacebookConnectionRepository stores one connection document per business, keyed by business id.
type MongoFacebookConnectionRepository struct {
	collection *mongo.Collection
}

func NewMongoFacebookConnectionRepository(db *mongo.Database) *MongoFacebookConnectionRepository {
	return &MongoFacebookConnectionRepository{
		collection: db.Collection(facebookConnectionCollectionName),
	}
}

func (r *MongoFacebookConnectionRepository) GetByBusinessID(ctx context.Context, businessID string) (*models.FacebookConnection, error) {
	var conn models.FacebookConnection
	err := r.collection.FindOne(ctx, bson.M{"_id": businessID}).Decode(&conn)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find facebook connection for business %s: %w", businessID, err)
	}
	return &conn, nil
}

func (r *MongoFacebookConnectionRepository) Save(ctx context.Context, conn *models.FacebookConnection) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": conn.BusinessID}, conn, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save facebook connection for business %s: %w", conn.BusinessID, err)
	}
	return nil
}

func (r *MongoFacebookConnectionRepository) Remove(ctx context.Context, businessID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": businessID}); err != nil {
		return fmt.Errorf("failed to delete facebook connection for business %s: %w", businessID, err)
	}
	return nil
}
