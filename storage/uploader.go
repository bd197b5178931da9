package storage

import (
	"context"
	"io"
	"path"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores published result documents.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ResultKey is the object key of a published document of a session, e.g.
// sessions/abc/classification.json.
func ResultKey(sessionID, name string) string {
	return path.Join("sessions", sessionID, name)
}
