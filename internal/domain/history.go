package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxRecentFiles caps the number of entries a device's recent history keeps.
const MaxRecentFiles = 10

// RecentHistory tracks the most recently relevant files for one anonymous
// device. FileIDs is ordered most-recent-first, holds no duplicates and
// never exceeds MaxRecentFiles entries. References are weak: a File deleted
// out-of-band leaves a dangling ID that resolution silently drops.
type RecentHistory struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	DeviceID     string               `bson:"deviceId" json:"deviceId"` // Client-generated lookup key, not a credential
	FileIDs      []primitive.ObjectID `bson:"fileIds" json:"fileIds"`
	LastAccessed time.Time            `bson:"lastAccessed" json:"lastAccessed"`
}
