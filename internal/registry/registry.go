// Package registry owns the processor catalog. It enforces unique names and
// hotkeys and tracks which comparators take part in batch reporting.
package registry

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/processor"
)

// Registry maps short names and hotkeys to processors, preserving insertion
// order for listings.
type Registry struct {
	mu       sync.RWMutex
	ordered  []processor.Processor
	byName   map[string]processor.Processor
	byHotkey map[string]processor.Processor
	store    EnablementStore
	logger   logrus.FieldLogger
}

// New creates an empty registry. A nil store falls back to a MemoryStore.
func New(store EnablementStore, logger logrus.FieldLogger) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		byName:   make(map[string]processor.Processor),
		byHotkey: make(map[string]processor.Processor),
		store:    store,
		logger:   logger,
	}
}

// Add registers p. It fails without changing the registry when p is nil,
// its short name is taken, or its non-empty hotkey is taken.
func (r *Registry) Add(p processor.Processor) error {
	if p == nil {
		return apperrors.NewValidationError("cannot register a nil processor", nil)
	}
	name, key := p.ShortName(), p.Hotkey()
	if name == "" {
		return apperrors.NewValidationError("processor short name is empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return apperrors.NewValidationError(fmt.Sprintf("processor %q is already registered", name), nil)
	}
	if key != "" {
		if other, ok := r.byHotkey[key]; ok {
			return apperrors.NewValidationError(
				fmt.Sprintf("hotkey %q of %q is already used by %q", key, name, other.ShortName()), nil)
		}
	}

	if c, ok := p.(processor.Comparator); ok && c.PartOfAutoReporting() {
		c.SetEnabled(r.store.Enabled(name))
	}

	r.ordered = append(r.ordered, p)
	r.byName[name] = p
	if key != "" {
		r.byHotkey[key] = p
	}
	r.logger.WithFields(logrus.Fields{
		"processor": name,
		"hotkey":    key,
		"kind":      p.Kind().String(),
	}).Debug("Processor registered")
	return nil
}

// Remove unregisters the named processor and reports whether it existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byName[name]
	if !ok {
		return false
	}
	delete(r.byName, name)
	if key := p.Hotkey(); key != "" && r.byHotkey[key] == p {
		delete(r.byHotkey, key)
	}
	for i, q := range r.ordered {
		if q == p {
			r.ordered = append(r.ordered[:i:i], r.ordered[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every processor. Stored enablement flags are kept.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordered = nil
	r.byName = make(map[string]processor.Processor)
	r.byHotkey = make(map[string]processor.Processor)
}

func (r *Registry) FindByShortName(name string) (processor.Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

func (r *Registry) FindByHotkey(key string) (processor.Processor, bool) {
	if key == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byHotkey[key]
	return p, ok
}

// SetEnabledInAutoReport updates the in-memory and stored flag of a
// batch-eligible comparator. It returns false, changing nothing, for any
// other processor.
func (r *Registry) SetEnabledInAutoReport(name string, enabled bool) bool {
	p, ok := r.FindByShortName(name)
	if !ok {
		return false
	}
	c, ok := p.(processor.Comparator)
	if !ok || !c.PartOfAutoReporting() {
		return false
	}

	r.mu.Lock()
	c.SetEnabled(enabled)
	r.mu.Unlock()
	r.store.SetEnabled(name, enabled)
	return true
}

// Processors returns all processors in registration order.
func (r *Registry) Processors() []processor.Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]processor.Processor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Comparators returns the registered comparators in registration order.
func (r *Registry) Comparators() []processor.Comparator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []processor.Comparator
	for _, p := range r.ordered {
		if c, ok := p.(processor.Comparator); ok {
			out = append(out, c)
		}
	}
	return out
}

// ReportComparators returns the comparators that are batch-eligible and enabled.
func (r *Registry) ReportComparators() []processor.Comparator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []processor.Comparator
	for _, p := range r.ordered {
		if c, ok := p.(processor.Comparator); ok && c.PartOfAutoReporting() && c.Enabled() {
			out = append(out, c)
		}
	}
	return out
}

// Info snapshots every processor for listings.
func (r *Registry) Info() []processor.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]processor.Info, 0, len(r.ordered))
	for _, p := range r.ordered {
		out = append(out, processor.Describe(p))
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}
