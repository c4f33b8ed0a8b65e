package factory

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/image-compare-go/internal/config"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/registry"
	"github.com/anime-shed/image-compare-go/internal/storage"
	"github.com/anime-shed/image-compare-go/pkg/validation"
)

type staticRecognizer struct{}

func (staticRecognizer) RecognizeText(image.Image) (string, error) { return "text", nil }

func TestCatalogBuildsRegistry(t *testing.T) {
	logger, _ := test.NewNullLogger()

	reg, err := NewRegistry(Catalog(false), Dependencies{}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 15, reg.Len())
	assert.Len(t, reg.Comparators(), 11)
	assert.Len(t, reg.ReportComparators(), 11)

	hotkeys := map[string]string{
		"D": "Mono Difference", "T": "Difference Report", "M": "Difference Map",
		"C": "Custom Range Difference", "A": "Absolute Difference", "S": "Saturation",
		"H": "Sharpness", "L": "Brightness", "K": "Contrast", "O": "Proximity To Origin",
		"N": "Linear vs Non-linear Difference", "R": "Show Red Channel",
		"G": "Show Green Channel", "B": "Show Blue Channel", "Y": "Grayscale",
	}
	for key, name := range hotkeys {
		p, ok := reg.FindByHotkey(key)
		require.True(t, ok, key)
		assert.Equal(t, name, p.ShortName(), key)
	}
	_, ok := reg.FindByHotkey("X")
	assert.False(t, ok)
}

func TestCatalogWithOCR(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewRegistry(Catalog(true), Dependencies{}, nil, logger)
	assert.Error(t, err, "text difference needs a recognizer")

	reg, err := NewRegistry(Catalog(true), Dependencies{Recognizer: staticRecognizer{}}, nil, logger)
	require.NoError(t, err)
	p, ok := reg.FindByHotkey("X")
	require.True(t, ok)
	assert.Equal(t, processor.KindComparator, p.Kind())
	assert.Len(t, reg.ReportComparators(), 11, "text difference is not part of batch reports")
}

func TestRegistryLoadsStoredEnablement(t *testing.T) {
	store := registry.NewMemoryStore()
	store.SetEnabled("Contrast", false)
	reg, err := NewRegistry(Catalog(false), Dependencies{}, store, nil)
	require.NoError(t, err)
	for _, c := range reg.ReportComparators() {
		assert.NotEqual(t, "Contrast", c.ShortName())
	}
}

func TestEveryAlgorithmIsConstructible(t *testing.T) {
	for id := range algorithmNames {
		p, err := NewProcessor(id, Dependencies{Recognizer: staticRecognizer{}})
		require.NoError(t, err, id.String())
		assert.NotEmpty(t, p.ShortName())
	}
	_, err := NewProcessor(AlgorithmID(99), Dependencies{})
	assert.EqualError(t, err, "unsupported algorithm: algorithm(99)")
}

func TestStorageFactory(t *testing.T) {
	pair := processor.Pair{
		First:  processor.NewImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)), "/shots/a.png"),
		Second: processor.NewImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)), "/shots/b.png"),
	}

	f, err := NewStorageFactory(&config.Config{StorageBackend: config.StorageLocal, ReportBackend: config.StorageLocal})
	require.NoError(t, err)
	fetcher, validator, err := f.CreateFetcher()
	require.NoError(t, err)
	assert.IsType(t, storage.LocalImageFetcher{}, fetcher)
	assert.IsType(t, &validation.PathValidator{}, validator)
	assert.Equal(t, "/shots", f.reportRoot(pair, ""))
	assert.Equal(t, "out", f.reportRoot(pair, "out"))

	out := t.TempDir()
	w, err := f.CreateReportWriter(pair, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "a_vs_b_comparison_report"), w.Location())

	f, err = NewStorageFactory(&config.Config{StorageBackend: config.StorageHTTP, ReportBackend: config.StorageLocal, ReportRoot: "/var/reports"})
	require.NoError(t, err)
	_, validator, err = f.CreateFetcher()
	require.NoError(t, err)
	assert.IsType(t, &validation.URLValidator{}, validator)
	assert.Equal(t, "/var/reports", f.reportRoot(pair, ""))

	f, err = NewStorageFactory(&config.Config{StorageBackend: "ftp", ReportBackend: "tape"})
	require.NoError(t, err)
	_, _, err = f.CreateFetcher()
	assert.Error(t, err)
	_, err = f.CreateReportWriter(pair, "")
	assert.Error(t, err)
}
