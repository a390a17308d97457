package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File stores metadata about one uploaded file. The actual bytes live in
// the blob store (GridFS or S3) under BlobID.
type File struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename      string             `bson:"filename" json:"filename"`         // Server-generated unique name: {base}-{unixMillis}{ext}
	OriginalName  string             `bson:"originalName" json:"originalName"` // Filename as supplied by the client, used for Content-Disposition
	BlobID        string             `bson:"blobId" json:"blobId"`             // Opaque reference into the blob store, owned by this record
	Size          int64              `bson:"size" json:"size"`                 // File size in bytes
	Mimetype      string             `bson:"mimetype" json:"mimetype"`         // Client-declared content type
	QRCode        string             `bson:"qrCode" json:"qrCode"`             // Data-URI PNG encoding the download URL, generated once at upload
	DownloadCount int64              `bson:"downloadCount" json:"downloadCount"`
	UploadDate    time.Time          `bson:"uploadDate" json:"uploadDate"`
}
