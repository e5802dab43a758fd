// Package artifact implements the content-addressed artifact store. Artifacts
// are keyed by the SHA-256 of their bytes and scoped to one deal: uploading
// identical bytes to the same deal returns the existing record, uploading them
// to a different deal is rejected.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "dealgate/pkg/domain"
)

// Record describes one stored artifact.
type Record struct {
	ID        id.ArtifactID
	DealID    id.DealID
	Hash      string
	Filename  string
	Size      int64
	CreatedAt time.Time
}

// HashBytes computes the canonical content hash for artifact bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
