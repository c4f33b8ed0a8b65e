package storage

import (
	"context"
	"image"

	// Decoders for every format the image source accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageFetcher loads and fully decodes one image from a location whose form
// depends on the backend: a file path, an http(s) URL or a container/blob
// name.
type ImageFetcher interface {
	FetchImage(ctx context.Context, location string) (image.Image, error)
}
