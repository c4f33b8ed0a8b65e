package validation

import (
	"fmt"
	"image"
)

// PairLimits bounds the images accepted for comparison.
type PairLimits struct {
	// Below these sizes statistics are reported with a warning.
	MinWidth  int
	MinHeight int

	MaxWidth       int
	MaxHeight      int
	MaxTotalPixels int
}

// DefaultPairLimits returns the default pair limits
func DefaultPairLimits() PairLimits {
	return PairLimits{
		MinWidth:       8,
		MinHeight:      8,
		MaxWidth:       16384,
		MaxHeight:      16384,
		MaxTotalPixels: 40_000_000,
	}
}

// Severity levels of an Issue.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one finding about an image pair.
type Issue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// PairValidator checks decoded image sizes against PairLimits.
type PairValidator struct {
	limits PairLimits
}

// NewPairValidator creates a pair validator with default limits
func NewPairValidator() *PairValidator {
	return &PairValidator{limits: DefaultPairLimits()}
}

// NewPairValidatorWithLimits creates a pair validator with custom limits
func NewPairValidatorWithLimits(limits PairLimits) *PairValidator {
	return &PairValidator{limits: limits}
}

// Validate reports issues for the bounds of the first and second image.
func (pv *PairValidator) Validate(first, second image.Rectangle) []Issue {
	var issues []Issue

	if first.Empty() || second.Empty() {
		return append(issues, Issue{
			Type:     "empty_image",
			Message:  "Both images must contain pixels.",
			Severity: SeverityError,
		})
	}

	if first.Size() != second.Size() {
		issues = append(issues, Issue{
			Type: "dimension_mismatch",
			Message: fmt.Sprintf("Images have different dimensions: %dx%d vs %dx%d.",
				first.Dx(), first.Dy(), second.Dx(), second.Dy()),
			Severity: SeverityError,
		})
	}

	for _, r := range []image.Rectangle{first, second} {
		if r.Dx() > pv.limits.MaxWidth || r.Dy() > pv.limits.MaxHeight {
			issues = append(issues, Issue{
				Type:        "too_large",
				Message:     fmt.Sprintf("Image %dx%d exceeds the %dx%d limit.", r.Dx(), r.Dy(), pv.limits.MaxWidth, pv.limits.MaxHeight),
				Severity:    SeverityError,
				ActualValue: float64(max(r.Dx(), r.Dy())),
				Threshold:   float64(max(pv.limits.MaxWidth, pv.limits.MaxHeight)),
			})
			break
		}
		if pixels := r.Dx() * r.Dy(); pixels > pv.limits.MaxTotalPixels {
			issues = append(issues, Issue{
				Type:        "too_many_pixels",
				Message:     fmt.Sprintf("Image has %d pixels, more than %d.", pixels, pv.limits.MaxTotalPixels),
				Severity:    SeverityError,
				ActualValue: float64(pixels),
				Threshold:   float64(pv.limits.MaxTotalPixels),
			})
			break
		}
	}

	if first.Dx() < pv.limits.MinWidth || first.Dy() < pv.limits.MinHeight {
		issues = append(issues, Issue{
			Type:        "small_image",
			Message:     "Image is very small; sharpness and contrast figures may not be meaningful.",
			Severity:    SeverityWarning,
			ActualValue: float64(min(first.Dx(), first.Dy())),
			Threshold:   float64(min(pv.limits.MinWidth, pv.limits.MinHeight)),
		})
	}

	return issues
}

// Messages returns the issue messages in order.
func Messages(issues []Issue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any error severity issues
func HasCriticalIssues(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
