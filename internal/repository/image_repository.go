package repository

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/storage"
	"github.com/anime-shed/image-compare-go/pkg/validation"
)

// FetcherImageRepository implements ImageRepository over a storage fetcher
type FetcherImageRepository struct {
	fetcher   storage.ImageFetcher
	locations validation.LocationValidator
	pairs     *validation.PairValidator
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// NewImageRepository creates an image repository. A zero timeout disables
// the per-image fetch deadline.
func NewImageRepository(
	fetcher storage.ImageFetcher,
	locations validation.LocationValidator,
	pairs *validation.PairValidator,
	timeout time.Duration,
	logger logrus.FieldLogger,
) *FetcherImageRepository {
	if pairs == nil {
		pairs = validation.NewPairValidator()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FetcherImageRepository{
		fetcher:   fetcher,
		locations: locations,
		pairs:     pairs,
		timeout:   timeout,
		logger:    logger,
	}
}

func (r *FetcherImageRepository) ValidateLocation(location string) error {
	if r.locations == nil {
		if strings.TrimSpace(location) == "" {
			return apperrors.NewValidationError("image location cannot be empty", nil)
		}
		return nil
	}
	return r.locations.Validate(location)
}

func (r *FetcherImageRepository) LoadImage(ctx context.Context, location string) (processor.Image, error) {
	if err := r.ValidateLocation(location); err != nil {
		return processor.Image{}, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	img, err := r.fetcher.FetchImage(ctx, location)
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.NewNetworkError("failed to load image", err).WithDetails(location)
		}
		r.logger.WithField("location", location).WithError(err).Warn("Image load failed")
		return processor.Image{}, err
	}

	loaded := processor.NewImage(img, location)
	r.logger.WithFields(logrus.Fields{
		"location":   location,
		"width":      loaded.Bounds().Dx(),
		"height":     loaded.Bounds().Dy(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Image loaded")
	return loaded, nil
}

func (r *FetcherImageRepository) LoadPair(ctx context.Context, first, second string) (processor.Pair, error) {
	a, err := r.LoadImage(ctx, first)
	if err != nil {
		return processor.Pair{}, err
	}
	b := a
	if second != "" && second != first {
		if b, err = r.LoadImage(ctx, second); err != nil {
			return processor.Pair{}, err
		}
	}

	issues := r.pairs.Validate(a.Bounds(), b.Bounds())
	if validation.HasCriticalIssues(issues) {
		return processor.Pair{}, apperrors.NewValidationError("image pair rejected", nil).
			WithDetails(strings.Join(validation.Messages(issues), " "))
	}
	for _, issue := range issues {
		r.logger.WithFields(logrus.Fields{
			"first":  first,
			"second": second,
			"issue":  issue.Type,
		}).Warn(issue.Message)
	}

	return processor.NewPair(a, b)
}
