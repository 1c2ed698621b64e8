package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lecturepdf/internal/storage"
)

// Linker builds the URL a client uses to open a rendered document.
type Linker interface {
	URL(ctx context.Context, key string) (string, error)
}

// PublicLinker points at the bucket's public endpoint. With an empty base
// URL it uses the S3 virtual-hosted form.
type PublicLinker struct {
	store   storage.Store
	baseURL string
}

func NewPublicLinker(store storage.Store, baseURL string) *PublicLinker {
	return &PublicLinker{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *PublicLinker) URL(ctx context.Context, key string) (string, error) {
	objectKey := escapePath(l.store.ObjectKey(key))
	if l.baseURL != "" {
		return l.baseURL + "/" + objectKey, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", l.store.Bucket(), objectKey), nil
}

// PresignedLinker issues time-limited S3 GET URLs.
type PresignedLinker struct {
	presigner *storage.S3Presigner
	ttl       time.Duration
}

func NewPresignedLinker(presigner *storage.S3Presigner, ttl time.Duration) *PresignedLinker {
	return &PresignedLinker{presigner: presigner, ttl: ttl}
}

func (l *PresignedLinker) URL(ctx context.Context, key string) (string, error) {
	return l.presigner.PresignGet(ctx, key, l.ttl)
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
