package container

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-compare-go/internal/config"
	"github.com/anime-shed/image-compare-go/internal/factory"
	"github.com/anime-shed/image-compare-go/internal/logger"
	"github.com/anime-shed/image-compare-go/internal/observer"
	"github.com/anime-shed/image-compare-go/internal/ocr"
	"github.com/anime-shed/image-compare-go/internal/registry"
	"github.com/anime-shed/image-compare-go/internal/report"
	"github.com/anime-shed/image-compare-go/internal/repository"
	"github.com/anime-shed/image-compare-go/internal/service"
	"github.com/anime-shed/image-compare-go/internal/strategy"
	"github.com/anime-shed/image-compare-go/internal/transport"
	"github.com/anime-shed/image-compare-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	logger            *logrus.Logger
	registry          *registry.Registry
	storage           *factory.StorageFactory
	imageRepository   repository.ImageRepository
	publisher         *observer.EventPublisher
	metrics           *observer.MetricsObserver
	prompt            *strategy.ValuesStrategy
	processingService service.ProcessingService
	reports           *report.Runner
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Configure(cfg.LogLevel)

	// Build dependency graph
	reg, err := newRegistry(cfg, log)
	if err != nil {
		return nil, err
	}

	storageFactory, err := factory.NewStorageFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise storage: %w", err)
	}
	fetcher, locations, err := storageFactory.CreateFetcher()
	if err != nil {
		return nil, err
	}
	imageRepository := repository.NewImageRepository(fetcher, locations, validation.NewPairValidator(), cfg.ImageFetchTimeout, log)

	publisher := observer.NewEventPublisher(log)
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(log))
	publisher.Subscribe(metrics)

	prompt := strategy.NewValuesStrategy(nil, log)
	processingService := service.NewProcessingService(reg, prompt, publisher, log)

	pipeline := report.NewPipeline(reg, log, report.WithWorkers(cfg.BatchWorkers))
	reports := report.NewRunner(pipeline, storageFactory)

	handler := transport.NewHandler(transport.Dependencies{
		Service:    processingService,
		Prompt:     prompt,
		Registry:   reg,
		Repository: imageRepository,
		Reports:    reports,
		Metrics:    metrics,
	}, cfg)

	return &Container{
		config:            cfg,
		logger:            log,
		registry:          reg,
		storage:           storageFactory,
		imageRepository:   imageRepository,
		publisher:         publisher,
		metrics:           metrics,
		prompt:            prompt,
		processingService: processingService,
		reports:           reports,
		handler:           handler,
	}, nil
}

// newRegistry registers the built-in catalog. Text Difference is only
// offered when OCR is enabled and the binary was built with cgo.
func newRegistry(cfg *config.Config, log *logrus.Logger) (*registry.Registry, error) {
	withOCR := cfg.OCREnabled && ocr.Available
	if cfg.OCREnabled && !ocr.Available {
		log.Warn("OCR_ENABLED is set but this build has no Tesseract support; Text Difference is disabled")
	}

	deps := factory.Dependencies{}
	if withOCR {
		deps.Recognizer = ocr.NewTesseract(cfg.OCRLanguage)
	}
	reg, err := factory.NewRegistry(factory.Catalog(withOCR), deps, registry.NewMemoryStore(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to build processor registry: %w", err)
	}
	log.WithFields(logrus.Fields{
		"processors": reg.Len(),
		"ocr":        withOCR,
	}).Info("Processor registry ready")
	return reg, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Repository returns the image repository
func (c *Container) Repository() repository.ImageRepository {
	return c.imageRepository
}

// Reports returns the batch report runner
func (c *Container) Reports() *report.Runner {
	return c.reports
}

// Registry returns the processor registry
func (c *Container) Registry() *registry.Registry {
	return c.registry
}
