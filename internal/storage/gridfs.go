package storage

import (
	"context"
	"errors"
	"io"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Bucket name matches the original deployment's GridFS bucket.
const gridFSBucketName = "uploads"

// gridFSStorage implements the ObjectStorage interface on top of MongoDB
// GridFS, keeping file content in the same database as the metadata.
type gridFSStorage struct {
	bucket *gridfs.Bucket
}

// NewGridFSStorage creates a new GridFS storage service instance.
func NewGridFSStorage(db *mongo.Database) (ObjectStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(gridFSBucketName))
	if err != nil {
		log.Printf("ERROR: Failed to create GridFS bucket: %v", err)
		return nil, err
	}

	log.Printf("GridFS storage initialized, bucket: %s", gridFSBucketName)

	return &gridFSStorage{bucket: bucket}, nil
}

// Upload streams r into a new GridFS file and returns its ObjectID hex as
// the blob ID. The GridFS streams do not take a context; the caller's
// deadline, when set, is propagated through the bucket.
func (g *gridFSStorage) Upload(ctx context.Context, filename string, contentType string, r io.Reader) (string, error) {
	g.applyDeadline(ctx)

	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"contentType": contentType,
	})

	fileID, err := g.bucket.UploadFromStream(filename, r, uploadOpts)
	if err != nil {
		log.Printf("ERROR: GridFS upload failed for '%s': %v", filename, err)
		return "", err
	}

	return fileID.Hex(), nil
}

// Download opens a read stream over the GridFS file addressed by blobID.
func (g *gridFSStorage) Download(ctx context.Context, blobID string) (io.ReadCloser, error) {
	fileID, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return nil, ErrBlobNotFound
	}

	g.applyDeadline(ctx)

	stream, err := g.bucket.OpenDownloadStream(fileID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return stream, nil
}

// Delete removes the GridFS file addressed by blobID.
func (g *gridFSStorage) Delete(ctx context.Context, blobID string) error {
	fileID, err := primitive.ObjectIDFromHex(blobID)
	if err != nil {
		return ErrBlobNotFound
	}

	g.applyDeadline(ctx)

	if err := g.bucket.Delete(fileID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrBlobNotFound
		}
		return err
	}
	return nil
}

// applyDeadline forwards a context deadline to the bucket's stream
// deadlines, the only cancellation mechanism the v1 gridfs API offers.
func (g *gridFSStorage) applyDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = g.bucket.SetReadDeadline(deadline)
		_ = g.bucket.SetWriteDeadline(deadline)
	}
}
