package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"lecturepdf/internal/config"
)

// Stores holds the transcript (source) and rendered document (target)
// stores. S3Client is set only for the s3 backend.
type Stores struct {
	Source   Store
	Target   Store
	S3Client *s3.Client
	closers  []func() error
}

func (s *Stores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewStores builds both stores for cfg.StorageType from one shared client.
func NewStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	switch cfg.StorageType {
	case config.StorageS3:
		client, err := NewS3Client(ctx, S3ClientConfig{
			Region:      cfg.AWSRegion,
			Endpoint:    cfg.S3Endpoint,
			MaxAttempts: cfg.StoreMaxAttempts,
		})
		if err != nil {
			return nil, err
		}
		return &Stores{
			Source:   NewS3Store(client, cfg.SourceBucket, cfg.SourcePrefix),
			Target:   NewS3Store(client, cfg.TargetBucket, cfg.TargetPrefix),
			S3Client: client,
		}, nil

	case config.StorageGCS:
		client, err := NewGCSClient(ctx)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Source:  NewGCSStore(client, cfg.SourceBucket, cfg.SourcePrefix),
			Target:  NewGCSStore(client, cfg.TargetBucket, cfg.TargetPrefix),
			closers: []func() error{client.Close},
		}, nil

	case config.StorageFS:
		source, err := NewFileStore(cfg.DataDir, cfg.SourceBucket, cfg.SourcePrefix)
		if err != nil {
			return nil, fmt.Errorf("init source store: %w", err)
		}
		target, err := NewFileStore(cfg.DataDir, cfg.TargetBucket, cfg.TargetPrefix)
		if err != nil {
			return nil, fmt.Errorf("init target store: %w", err)
		}
		return &Stores{Source: source, Target: target}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
