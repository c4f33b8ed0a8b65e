package strategy

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-compare-go/internal/property"
)

// PromptStrategy supplies replacement property values before a processor
// runs. It returns either an empty list, meaning keep the defaults, or a
// full list with the same shape as defaults.
type PromptStrategy interface {
	PromptProperties(name, description string, defaults []property.Property) []property.Property
	GetStrategyName() string
}

// KeepDefaultsStrategy never changes a processor's configuration.
type KeepDefaultsStrategy struct{}

// NewKeepDefaultsStrategy creates a prompt strategy that always keeps defaults
func NewKeepDefaultsStrategy() PromptStrategy {
	return KeepDefaultsStrategy{}
}

func (KeepDefaultsStrategy) PromptProperties(string, string, []property.Property) []property.Property {
	return nil
}

// GetStrategyName returns the strategy name
func (KeepDefaultsStrategy) GetStrategyName() string {
	return "keep_defaults"
}

// ValuesStrategy answers prompts from raw textual values keyed by property
// name, typically decoded from a request body or command-line flags.
type ValuesStrategy struct {
	mu     sync.Mutex
	values map[string]string
	logger logrus.FieldLogger
}

// NewValuesStrategy creates a prompt strategy backed by raw values
func NewValuesStrategy(values map[string]string, logger logrus.FieldLogger) *ValuesStrategy {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &ValuesStrategy{logger: logger}
	s.Set(values)
	return s
}

// Set replaces the values used for subsequent prompts.
func (s *ValuesStrategy) Set(values map[string]string) {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	s.mu.Lock()
	s.values = cp
	s.mu.Unlock()
}

// PromptProperties applies every value whose name matches a default. When no
// value matches, the defaults are kept. A value that fails to parse leaves
// that property at its default.
func (s *ValuesStrategy) PromptProperties(name, description string, defaults []property.Property) []property.Property {
	s.mu.Lock()
	values := s.values
	s.mu.Unlock()

	out := make([]property.Property, len(defaults))
	matched := false
	for i, p := range defaults {
		out[i] = p
		raw, ok := values[p.Name()]
		if !ok {
			continue
		}
		matched = true
		parsed, err := p.Parse(raw)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"processor": name,
				"property":  p.Name(),
				"value":     raw,
			}).WithError(err).Warn("Ignoring invalid property value")
			continue
		}
		out[i] = parsed
	}
	if !matched {
		return nil
	}
	return out
}

// GetStrategyName returns the strategy name
func (s *ValuesStrategy) GetStrategyName() string {
	return "values"
}

// Describe renders properties as "name=value" pairs for logs and listings.
func Describe(props []property.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = fmt.Sprint(p)
	}
	return out
}
