package factory

import (
	"fmt"
	"path/filepath"

	"github.com/anime-shed/image-compare-go/internal/config"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/report"
	"github.com/anime-shed/image-compare-go/internal/storage"
	"github.com/anime-shed/image-compare-go/pkg/validation"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	HTTPStorage  StorageType = config.StorageHTTP
	AzureStorage StorageType = config.StorageAzure
	LocalStorage StorageType = config.StorageLocal
)

// StorageFactory creates the image source and report writers for a
// configuration. The Azure client is created once and shared.
type StorageFactory struct {
	cfg   *config.Config
	azure *storage.AzureStorage
}

// NewStorageFactory connects to Azure when either backend needs it
func NewStorageFactory(cfg *config.Config) (*StorageFactory, error) {
	f := &StorageFactory{cfg: cfg}
	if cfg.StorageBackend == config.StorageAzure || cfg.ReportBackend == config.StorageAzure {
		az, err := storage.NewAzureStorage(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureReportContainer)
		if err != nil {
			return nil, err
		}
		f.azure = az
	}
	return f, nil
}

// CreateFetcher returns the image fetcher and the matching location
// validator for the configured storage backend.
func (f *StorageFactory) CreateFetcher() (storage.ImageFetcher, validation.LocationValidator, error) {
	switch StorageType(f.cfg.StorageBackend) {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout), validation.NewURLValidator(), nil
	case AzureStorage:
		return f.azure, validation.NewPathValidator(), nil
	case LocalStorage:
		return storage.NewLocalImageFetcher(), validation.NewPathValidator(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", f.cfg.StorageBackend)
	}
}

// CreateReportWriter opens a writer for the batch report of pair. outDir
// overrides the configured report root when non-empty.
func (f *StorageFactory) CreateReportWriter(pair processor.Pair, outDir string) (report.Writer, error) {
	title := fmt.Sprintf("%s vs %s", pair.First.DisplayName(), pair.Second.DisplayName())
	switch StorageType(f.cfg.ReportBackend) {
	case AzureStorage:
		return report.NewBlobWriter(f.azure, pair.ReportDirName(), title), nil
	case LocalStorage:
		return report.NewDirWriter(filepath.Join(f.reportRoot(pair, outDir), pair.ReportDirName()), title)
	default:
		return nil, fmt.Errorf("unsupported report backend: %s", f.cfg.ReportBackend)
	}
}

// reportRoot prefers outDir, then REPORT_ROOT, then the directory of a
// local first image, then "reports".
func (f *StorageFactory) reportRoot(pair processor.Pair, outDir string) string {
	switch {
	case outDir != "":
		return outDir
	case f.cfg.ReportRoot != "":
		return f.cfg.ReportRoot
	case f.cfg.StorageBackend == config.StorageLocal && pair.First.Path != "":
		return filepath.Dir(pair.First.Path)
	default:
		return "reports"
	}
}
