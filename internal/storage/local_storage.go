package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxUniqueAttempts = 1000

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// CreateUniqueFile creates an empty file named after name, adding " (2)", " (3)", ...
// before the extension when the name is taken. It returns the full path.
func (ls *LocalStorage) CreateUniqueFile(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxUniqueAttempts; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}

		fullPath := filepath.Join(ls.basePath, candidate)
		f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}
		return fullPath, nil
	}

	return "", fmt.Errorf("no free file name for %s", name)
}

// WriteNewFile writes data to name and fails if the file already exists.
func (ls *LocalStorage) WriteNewFile(name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	fullPath := filepath.Join(ls.basePath, name)
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fullPath, nil
}

// DeleteFile accepts a name relative to the base path or a path already inside it.
func (ls *LocalStorage) DeleteFile(path string) error {
	fullPath, err := ls.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (ls *LocalStorage) resolve(path string) (string, error) {
	if filepath.IsAbs(path) || strings.HasPrefix(filepath.Clean(path), filepath.Clean(ls.basePath)+string(filepath.Separator)) {
		rel, err := filepath.Rel(ls.basePath, path)
		if err != nil {
			return "", fmt.Errorf("invalid path")
		}
		path = rel
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("invalid path")
	}

	return filepath.Join(ls.basePath, cleanPath), nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid file name: %q", name)
	}
	return nil
}
