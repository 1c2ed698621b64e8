package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const metaDirName = ".meta"

type fileMeta struct {
	ContentType string    `json:"contentType"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// FileStore keeps one bucket as a directory on disk. Object metadata lives
// in a .meta directory next to the objects.
type FileStore struct {
	mu     sync.RWMutex
	bucket string
	dir    string
	prefix string
}

func NewFileStore(baseDir, bucket, prefix string) (*FileStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("bucket name is required")
	}

	dir := filepath.Join(baseDir, bucket)
	dirs := []string{dir, filepath.Join(dir, metaDirName)}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", d, err)
		}
	}

	return &FileStore{bucket: bucket, dir: dir, prefix: prefix}, nil
}

func (s *FileStore) Bucket() string { return s.bucket }

func (s *FileStore) ObjectKey(key string) string { return joinKey(s.prefix, key) }

func (s *FileStore) List(ctx context.Context) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []ObjectInfo
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == metaDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		fullKey := filepath.ToSlash(rel)
		if !strings.HasPrefix(fullKey, s.prefix) {
			return nil
		}

		info, err := s.statLocked(fullKey)
		if err != nil {
			return err
		}
		info.Key = trimKey(s.prefix, fullKey)
		objects = append(objects, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.bucket, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *FileStore) Head(ctx context.Context, key string) (ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.objectPath(key); err != nil {
		return ObjectInfo{}, err
	}

	info, err := s.statLocked(s.ObjectKey(key))
	if err != nil {
		return ObjectInfo{}, err
	}
	info.Key = key
	return info, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.objectPath(key)
	if err != nil {
		return err
	}

	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	meta, err := json.Marshal(fileMeta{ContentType: contentType, ModifiedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := writeAtomic(s.metaPath(s.ObjectKey(key)), meta); err != nil {
		return fmt.Errorf("put meta %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) statLocked(fullKey string) (ObjectInfo, error) {
	fi, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(fullKey)))
	if errors.Is(err, fs.ErrNotExist) {
		return ObjectInfo{}, fmt.Errorf("head %s: %w", fullKey, ErrNotFound)
	}
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("head %s: %w", fullKey, err)
	}

	info := ObjectInfo{Key: fullKey, Size: fi.Size(), LastModified: fi.ModTime().UTC()}

	raw, err := os.ReadFile(s.metaPath(fullKey))
	if err == nil {
		var meta fileMeta
		if json.Unmarshal(raw, &meta) == nil {
			info.ContentType = meta.ContentType
		}
	}
	return info, nil
}

func (s *FileStore) objectPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}

	path := filepath.Join(s.dir, filepath.FromSlash(s.ObjectKey(key)))
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || isMetaPath(rel) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return path, nil
}

func isMetaPath(rel string) bool {
	return rel == metaDirName || strings.HasPrefix(rel, metaDirName+string(filepath.Separator))
}

func (s *FileStore) metaPath(fullKey string) string {
	return filepath.Join(s.dir, metaDirName, filepath.FromSlash(fullKey)+".json")
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace file: %w", err)
	}

	return nil
}
