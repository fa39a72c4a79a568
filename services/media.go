package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"chirp/config"

	"github.com/google/uuid"
)

// MediaStore is the binary media capability consumed by post create
// and delete. Storage itself is an external collaborator.
type MediaStore interface {
	Save(file *multipart.FileHeader) (url string, err error)
	Delete(url string) error
}

var Media MediaStore

// LocalMediaStore keeps uploads on the local disk under uuid names.
type LocalMediaStore struct {
	dir     string
	baseURL string
}

func InitMediaStore() error {
	dir := "uploads"
	baseURL := "/media"
	if config.AppConfig != nil {
		if config.AppConfig.Media.Dir != "" {
			dir = config.AppConfig.Media.Dir
		}
		if config.AppConfig.Media.BaseURL != "" {
			baseURL = config.AppConfig.Media.BaseURL
		}
	}
	store, err := NewLocalMediaStore(dir, baseURL)
	if err != nil {
		return err
	}
	Media = store
	return nil
}

func NewLocalMediaStore(dir, baseURL string) (*LocalMediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalMediaStore{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalMediaStore) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(file.Filename)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save media file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *LocalMediaStore) Delete(url string) error {
	name := path.Base(url)
	if name == "." || name == "/" {
		return fmt.Errorf("invalid media url %q", url)
	}
	return os.Remove(filepath.Join(s.dir, name))
}
