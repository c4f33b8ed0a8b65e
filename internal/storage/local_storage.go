package storage

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
)

// LocalImageFetcher reads images from the local file system and applies the
// EXIF orientation.
type LocalImageFetcher struct{}

// NewLocalImageFetcher creates a file system image fetcher
func NewLocalImageFetcher() ImageFetcher {
	return LocalImageFetcher{}
}

func (LocalImageFetcher) FetchImage(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("image load cancelled", err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("image file not found", err).WithDetails(path)
		}
		return nil, apperrors.NewInternalError("cannot access image file", err).WithDetails(path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewValidationError("failed to decode image", err).WithDetails(path)
	}
	return img, nil
}
