package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore implements Store on a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSClient creates a client using application default credentials.
func NewGCSClient(ctx context.Context) (*gcs.Client, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return client, nil
}

func NewGCSStore(client *gcs.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *GCSStore) Bucket() string { return s.bucket }

func (s *GCSStore) ObjectKey(key string) string { return joinKey(s.prefix, key) }

func (s *GCSStore) List(ctx context.Context) ([]ObjectInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: s.prefix})

	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list %s: %w", s.bucket, err)
		}
		objects = append(objects, ObjectInfo{
			Key:          trimKey(s.prefix, attrs.Name),
			Size:         attrs.Size,
			ContentType:  attrs.ContentType,
			LastModified: attrs.Updated,
		})
	}
	return objects, nil
}

func (s *GCSStore) Head(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(s.ObjectKey(key)).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("gcs attrs %s: %w", key, mapGCSError(err))
	}
	return ObjectInfo{
		Key:          key,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
	}, nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.ObjectKey(key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs get %s: %w", key, mapGCSError(err))
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	return data, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(s.ObjectKey(key)).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

func mapGCSError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
