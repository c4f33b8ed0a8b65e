package validation

import (
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
)

// LocationValidator checks an image location before it is fetched.
type LocationValidator interface {
	Validate(location string) error
}

// SupportedExtensions lists the image formats the image source can decode.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// PathValidator accepts file paths and blob names with a supported image
// extension.
type PathValidator struct {
	extensions []string
}

// NewPathValidator creates a validator for the supported image extensions
func NewPathValidator() *PathValidator {
	return &PathValidator{extensions: SupportedExtensions}
}

func (v *PathValidator) Validate(location string) error {
	if strings.TrimSpace(location) == "" {
		return apperrors.NewValidationError("image location cannot be empty", nil)
	}
	ext := strings.ToLower(filepath.Ext(location))
	for _, allowed := range v.extensions {
		if ext == allowed {
			return nil
		}
	}
	return apperrors.NewValidationError("unsupported image format", nil).WithDetails(location)
}
