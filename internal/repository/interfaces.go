package repository

import (
	"context"

	"github.com/anime-shed/image-compare-go/internal/processor"
)

// ImageRepository loads fully decoded images for comparison
type ImageRepository interface {
	// LoadImage fetches and decodes one image.
	LoadImage(ctx context.Context, location string) (processor.Image, error)

	// LoadPair loads two images of equal size. An empty second location, or
	// one equal to first, compares the image with itself.
	LoadPair(ctx context.Context, first, second string) (processor.Pair, error)

	// ValidateLocation checks a location without fetching it.
	ValidateLocation(location string) error
}
