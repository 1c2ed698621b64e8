package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Head and Get when the object does not exist.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// Store is a bucket-scoped object store. Keys are relative to the store's
// prefix; ObjectKey returns the full key inside the bucket.
type Store interface {
	List(ctx context.Context) ([]ObjectInfo, error)
	Head(ctx context.Context, key string) (ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Bucket() string
	ObjectKey(key string) string
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + key
}

func trimKey(prefix, key string) string {
	if prefix == "" || len(key) < len(prefix) || key[:len(prefix)] != prefix {
		return key
	}
	return key[len(prefix):]
}
