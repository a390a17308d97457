package mongo

import (
	"context"
	"errors"
	"time"

	"fileshare/internal/domain"
	"fileshare/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const fileCollectionName = "files"

// mongoFileRepository implements repository.FileRepository
type mongoFileRepository struct {
	collection *mongo.Collection
}

// NewMongoFileRepository creates a new File repository backed by MongoDB.
func NewMongoFileRepository(db *mongo.Database) repository.FileRepository {
	return &mongoFileRepository{
		collection: db.Collection(fileCollectionName),
	}
}

// Create inserts new file metadata into the database.
func (r *mongoFileRepository) Create(ctx context.Context, file *domain.File) (primitive.ObjectID, error) {
	// Basic validation
	if file.Filename == "" || file.OriginalName == "" || file.BlobID == "" {
		return primitive.NilObjectID, errors.New("file requires filename, originalName and blobId")
	}

	file.ID = primitive.NewObjectID()
	if file.UploadDate.IsZero() {
		file.UploadDate = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, file)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByFilename retrieves file metadata by the server-generated filename.
func (r *mongoFileRepository) GetByFilename(ctx context.Context, filename string) (*domain.File, error) {
	var file domain.File
	filter := bson.M{"filename": filename}

	err := r.collection.FindOne(ctx, filter).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// GetByID retrieves file metadata by its ID.
func (r *mongoFileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.File, error) {
	var file domain.File
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// GetByIDs retrieves the files whose IDs are in ids, newest upload first.
// Missing IDs are silently absent from the result.
func (r *mongoFileRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error) {
	if len(ids) == 0 {
		return []domain.File{}, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []domain.File{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListRecent retrieves up to limit files sorted by upload date descending.
func (r *mongoFileRepository) ListRecent(ctx context.Context, limit int64) ([]domain.File, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "uploadDate", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []domain.File{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListAll retrieves every file, newest upload first. Debug/introspection use.
func (r *mongoFileRepository) ListAll(ctx context.Context) ([]domain.File, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []domain.File{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// IncrementDownloadCount bumps downloadCount by one in a single atomic
// update and returns the updated document. Concurrent downloads cannot
// undercount.
func (r *mongoFileRepository) IncrementDownloadCount(ctx context.Context, filename string) (*domain.File, error) {
	filter := bson.M{"filename": filename}
	update := bson.M{"$inc": bson.M{"downloadCount": 1}}
	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var file domain.File
	err := r.collection.FindOneAndUpdate(ctx, filter, update, findOptions).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// EnsureFileIndexes creates necessary indexes for the files collection.
func EnsureFileIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Downloads and info lookups go through the generated filename.
			Keys:    bson.D{{Key: "filename", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Recent-file listings sort on uploadDate.
			Keys:    bson.D{{Key: "uploadDate", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
