package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// PhotoName is the base name of every captured photo. Later captures get
// "EmotionPic (2).jpg", "EmotionPic (3).jpg" and so on.
const PhotoName = "EmotionPic.jpg"

// Camera takes one still photo and returns the path it was saved to.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// PhotoStore hands out a fresh, empty file for every photo.
type PhotoStore interface {
	CreateUniqueFile(name string) (string, error)
}

// ErrUnavailable is returned by cameras that failed to initialize.
var ErrUnavailable = errors.New("camera is not initialized")

// InitError formats a camera initialization failure the way it is shown to the user.
func InitError(err error) string {
	return fmt.Sprintf("Unable to initialize camera for audio/video mode: %v", err)
}

// UnavailableCamera stands in for a camera that could not be opened so the
// service can still start and report the failure on every capture.
type UnavailableCamera struct {
	Cause error
}

func (c UnavailableCamera) Capture(ctx context.Context) (string, error) {
	if c.Cause != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, c.Cause)
	}
	return "", ErrUnavailable
}

// FileCamera "captures" by copying a fixed image into the photo directory.
type FileCamera struct {
	source string
	photos PhotoStore
}

func NewFileCamera(source string, photos PhotoStore) (*FileCamera, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("source image not accessible: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source image %s is a directory", source)
	}
	return &FileCamera{source: source, photos: photos}, nil
}

func (c *FileCamera) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(c.source)
	if err != nil {
		return "", fmt.Errorf("failed to open source image: %w", err)
	}
	defer src.Close()

	path, err := c.photos.CreateUniqueFile(PhotoName)
	if err != nil {
		return "", err
	}

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open photo file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to copy source image: %w", err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}

	return path, nil
}
