// Package storage holds the object stores behind listing photos and videos.
package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrBadKey         = errors.New("invalid object key")
)

type ObjectStore interface {
	// Upload stores r under bucket/key and returns the object's public URL.
	Upload(ctx context.Context, bucket, key string, r io.Reader) (string, error)
	Remove(ctx context.Context, bucket, key string) error
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// CleanKey rejects traversal, absolute paths and control bytes, and returns the
// slash-separated key.
func CleanKey(key string) (string, error) {
	raw := strings.ToLower(key)
	if key == "" || strings.Contains(raw, "..") || strings.Contains(raw, "%2e") || strings.ContainsRune(key, 0) ||
		strings.Contains(key, `\`) {
		return "", ErrBadKey
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean == "." {
		return "", ErrBadKey
	}
	return clean, nil
}

func publicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}

// LocalStore writes objects below a directory and serves them under baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		root = abs
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

func (s *LocalStore) path(bucket, key string) (string, string, error) {
	b, err := CleanKey(bucket)
	if err != nil || strings.Contains(b, "/") {
		return "", "", ErrBadKey
	}
	k, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.root, b, filepath.FromSlash(k)), k, nil
}

func (s *LocalStore) Upload(_ context.Context, bucket, key string, r io.Reader) (string, error) {
	full, k, err := s.path(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return publicURL(s.baseURL, bucket, k), nil
}

func (s *LocalStore) Remove(_ context.Context, bucket, key string) error {
	full, _, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}

func (s *LocalStore) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	full, _, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, ErrObjectNotFound
	}
	return f, nil
}
