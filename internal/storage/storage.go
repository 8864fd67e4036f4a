package storage

import "context"

type Storage interface {
	CreateUniqueFile(name string) (string, error)
	WriteNewFile(name string, data []byte) (string, error)
	DeleteFile(path string) error
}

// BlobStore uploads a local file and returns the URI it can be fetched from.
type BlobStore interface {
	UploadFile(ctx context.Context, localPath, objectName, contentType string) (string, error)
}
