package mongo

import (
	"context"
	"errors"

	"fileshare/internal/domain"
	"fileshare/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollectionName = "recent_histories"

// mongoHistoryRepository implements repository.HistoryRepository
type mongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new RecentHistory repository backed by MongoDB.
func NewMongoHistoryRepository(db *mongo.Database) repository.HistoryRepository {
	return &mongoHistoryRepository{
		collection: db.Collection(historyCollectionName),
	}
}

// PushFront upserts the device's history document in one atomic update:
// fileID is removed from wherever it was, prepended, and the list is
// truncated to domain.MaxRecentFiles. Uses an aggregation-pipeline update so
// concurrent pushes for the same device cannot lose entries.
func (r *mongoHistoryRepository) PushFront(ctx context.Context, deviceID string, fileID primitive.ObjectID) error {
	if deviceID == "" {
		return errors.New("deviceId is required")
	}

	filter := bson.M{"deviceId": deviceID}
	update := bson.A{
		bson.M{"$set": bson.M{
			"deviceId": deviceID,
			"fileIds": bson.M{"$slice": bson.A{
				bson.M{"$concatArrays": bson.A{
					bson.A{fileID},
					bson.M{"$filter": bson.M{
						"input": bson.M{"$ifNull": bson.A{"$fileIds", bson.A{}}},
						"cond":  bson.M{"$ne": bson.A{"$$this", fileID}},
					}},
				}},
				domain.MaxRecentFiles,
			}},
			"lastAccessed": "$$NOW",
		}},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetByDeviceID retrieves the history document for a device.
func (r *mongoHistoryRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domain.RecentHistory, error) {
	var history domain.RecentHistory
	filter := bson.M{"deviceId": deviceID}

	err := r.collection.FindOne(ctx, filter).Decode(&history)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &history, nil
}

// Delete removes the device's history document. Absent documents are a no-op.
func (r *mongoHistoryRepository) Delete(ctx context.Context, deviceID string) error {
	filter := bson.M{"deviceId": deviceID}
	_, err := r.collection.DeleteOne(ctx, filter)
	return err
}

// ListAll retrieves every history document. Debug/introspection use.
func (r *mongoHistoryRepository) ListAll(ctx context.Context) ([]domain.RecentHistory, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	histories := []domain.RecentHistory{}
	if err := cursor.All(ctx, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

// EnsureHistoryIndexes creates necessary indexes for the recent_histories collection.
func EnsureHistoryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One history document per device; every lookup keys on deviceId.
			Keys:    bson.D{{Key: "deviceId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
