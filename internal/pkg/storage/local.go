package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	log "log/slog"
	"os"
	"path/filepath"
)

// LocalStore 本地文件系统存储，目录结构为 root/<category>-attachments/<name>
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	for _, c := range Categories {
		if err := os.MkdirAll(filepath.Join(root, c.Dir()), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) file(c Category, name string) string {
	return filepath.Join(s.root, c.Dir(), name)
}

func (s *LocalStore) Save(ctx context.Context, c Category, name string, r io.Reader, _ int64, _ string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	p := s.file(c, name)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(p); rmErr != nil {
			log.WarnContext(ctx, "failed to remove partial file", "path", p, "err", rmErr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return PublicPath(c, name), nil
}

// Delete 文件不存在视为成功
func (s *LocalStore) Delete(_ context.Context, c Category, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(s.file(c, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Open(_ context.Context, c Category, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(s.file(c, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) List(_ context.Context, c Category) ([]BlobInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, c.Dir()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	list := make([]BlobInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		list = append(list, BlobInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return list, nil
}
