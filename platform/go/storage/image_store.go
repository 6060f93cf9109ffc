package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// ImageStore persists card images under logical keys. Implementations return the
// stored path so callers can record it on the card row.
type ImageStore interface {
	Put(ctx context.Context, logicalKey string, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, logicalKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, logicalKey string) error
}

// GCSImageStore stores images in a Google Cloud Storage bucket under a base prefix.
type GCSImageStore struct {
	client     *gcs.Client
	bucket     string
	basePrefix string
}

func NewGCSImageStore(client *gcs.Client, bucket string, basePrefix string) (*GCSImageStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if strings.TrimSpace(basePrefix) == "" {
		return nil, fmt.Errorf("base prefix is required")
	}

	return &GCSImageStore{client: client, bucket: bucket, basePrefix: basePrefix}, nil
}

func (s *GCSImageStore) Put(ctx context.Context, logicalKey string, contentType string, r io.Reader) (string, error) {
	loc, err := ResolveObjectLocation(s.basePrefix, s.bucket, logicalKey)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", loc.FullPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", loc.FullPath, err)
	}

	return loc.FullPath, nil
}

func (s *GCSImageStore) Open(ctx context.Context, logicalKey string) (io.ReadCloser, error) {
	loc, err := ResolveObjectLocation(s.basePrefix, s.bucket, logicalKey)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(loc.Bucket).Object(loc.FullPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", loc.FullPath, err)
	}
	return rc, nil
}

func (s *GCSImageStore) Delete(ctx context.Context, logicalKey string) error {
	loc, err := ResolveObjectLocation(s.basePrefix, s.bucket, logicalKey)
	if err != nil {
		return err
	}

	if err := s.client.Bucket(loc.Bucket).Object(loc.FullPath).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", loc.FullPath, err)
	}
	return nil
}

// LocalImageStore stores images on the local filesystem. Development only.
type LocalImageStore struct {
	baseDir string
}

func NewLocalImageStore(baseDir string) (*LocalImageStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	return &LocalImageStore{baseDir: baseDir}, nil
}

func (s *LocalImageStore) resolve(logicalKey string) (string, error) {
	key := strings.TrimSpace(strings.TrimPrefix(logicalKey, "/"))
	if key == "" {
		return "", fmt.Errorf("logical key is required")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid logical key %q", logicalKey)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}

func (s *LocalImageStore) Put(ctx context.Context, logicalKey string, contentType string, r io.Reader) (string, error) {
	path, err := s.resolve(logicalKey)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dirs for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}

	return strings.TrimPrefix(logicalKey, "/"), nil
}

func (s *LocalImageStore) Open(ctx context.Context, logicalKey string) (io.ReadCloser, error) {
	path, err := s.resolve(logicalKey)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return f, nil
}

func (s *LocalImageStore) Delete(ctx context.Context, logicalKey string) error {
	path, err := s.resolve(logicalKey)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

var _ ImageStore = (*GCSImageStore)(nil)
var _ ImageStore = (*LocalImageStore)(nil)
