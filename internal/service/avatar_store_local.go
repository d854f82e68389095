package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LocalAvatarStore writes avatars under a public directory and returns the
// relative "avatars/<name>" path served by the frontend.
type LocalAvatarStore struct {
	dir string
}

func NewLocalAvatarStore(dir string) (*LocalAvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar directory: %w", err)
	}
	return &LocalAvatarStore{dir: dir}, nil
}

func (s *LocalAvatarStore) Save(_ context.Context, fileName string, file io.Reader, _ int64, _ string) (string, error) {
	dst := filepath.Join(s.dir, fileName)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	return path.Join("avatars", fileName), nil
}
