package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-compare-go/internal/config"
	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/logger"
	"github.com/anime-shed/image-compare-go/internal/observer"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/registry"
	"github.com/anime-shed/image-compare-go/internal/report"
	"github.com/anime-shed/image-compare-go/internal/repository"
	"github.com/anime-shed/image-compare-go/internal/service"
	"github.com/anime-shed/image-compare-go/internal/strategy"
	"github.com/anime-shed/image-compare-go/pkg/models"
)

// ReportRunner writes the batch report of a pair.
type ReportRunner interface {
	Run(ctx context.Context, pair processor.Pair, outDir string, sink report.ProgressSink) (*report.Summary, error)
}

// Dependencies are the collaborators of the HTTP API. Service and Prompt
// belong to one session; the handler serialises every call into them.
type Dependencies struct {
	Service    service.ProcessingService
	Prompt     *strategy.ValuesStrategy
	Registry   *registry.Registry
	Repository repository.ImageRepository
	Reports    ReportRunner
	Metrics    *observer.MetricsObserver
}

// session guards the single-threaded processing state.
type session struct {
	mu sync.Mutex
	Dependencies
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	s := &session{Dependencies: deps}
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", s.metrics)
	r.GET("/processors", s.listProcessors)
	r.PUT("/processors/:name/enabled", s.setEnabled)
	r.POST("/images", s.loadImages(cfg))
	r.POST("/process", s.process(cfg))
	r.POST("/selection", s.selection(cfg))
	r.POST("/restore", s.restore)
	r.POST("/last-result", s.lastResult)
	r.GET("/pixel", s.pixel)
	r.POST("/report", s.report(cfg))

	return r
}

func (s *session) loadImages(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing image load request")

		var req models.ImagesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		pair, err := s.Repository.LoadPair(ctx, req.First, req.Second)
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to load images", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.Service.Load(ctx, pair); err != nil {
			respondError(c, determineStatusCode(err), "failed to load images", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"first":  pair.First.Path,
			"second": pair.Second.Path,
			"width":  pair.Size().X,
			"height": pair.Size().Y,
		}).Info("Image pair loaded")
		c.JSON(http.StatusOK, pairResponse(pair, false))
	}
}

func (s *session) process(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing request")

		var req models.ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.Prompt.Set(req.Properties)
		defer s.Prompt.Set(nil)

		out, err := s.Service.Run(ctx, req.Processor)
		if err != nil {
			respondError(c, determineStatusCode(err), "processing failed", err)
			return
		}
		respondOutcome(c, out, s.Service.Displayed(), false)
	}
}

func (s *session) selection(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing selected area request")

		var req models.SelectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		rect := image.Rect(req.Rect.MinX, req.Rect.MinY, req.Rect.MaxX, req.Rect.MaxY)

		s.mu.Lock()
		defer s.mu.Unlock()
		out, ok, err := s.Service.AnalyzeSelectedRect(ctx, rect, req.Hotkey)
		if err != nil {
			respondError(c, determineStatusCode(err), "selected area analysis failed", err)
			return
		}
		if !ok {
			err := apperrors.NewResolutionError(fmt.Sprintf("no comparator bound to hotkey %q", req.Hotkey), nil)
			respondError(c, err.StatusCode, "selected area analysis failed", err)
			return
		}
		respondOutcome(c, out, s.Service.Displayed(), true)
	}
}

func (s *session) restore(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Service.RestoreOriginal(c.Request.Context()) {
		err := apperrors.NewValidationError("no images loaded", nil)
		respondError(c, err.StatusCode, "restore failed", err)
		return
	}
	c.JSON(http.StatusOK, pairResponse(s.Service.Displayed(), false))
}

func (s *session) lastResult(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Service.ShowLastComparisonResult(c.Request.Context()) {
		err := apperrors.NewNotFoundError("no comparison result to reopen", nil)
		respondError(c, err.StatusCode, "reopen failed", err)
		return
	}
	img, _ := s.Service.LastComparisonResult()
	encoded, err := encodePNG(img)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to encode result", err)
		return
	}
	c.JSON(http.StatusOK, models.LastResultResponse{
		Image:    encoded,
		FileName: s.Service.Displayed().ResultFileName(false) + ".png",
	})
}

func (s *session) pixel(c *gin.Context) {
	x, errX := strconv.Atoi(c.Query("x"))
	y, errY := strconv.Atoi(c.Query("y"))
	if err := errors.Join(errX, errY); err != nil {
		respondError(c, http.StatusBadRequest, "x and y must be integers", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sample, err := s.Service.SamplePixel(x, y)
	if err != nil {
		respondError(c, determineStatusCode(err), "pixel sampling failed", err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (s *session) listProcessors(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.Service.ProcessorsInfo())
}

func (s *session) setEnabled(c *gin.Context) {
	var req models.EnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}
	name := c.Param("name")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Registry.SetEnabledInAutoReport(name, *req.Enabled) {
		err := apperrors.NewResolutionError(fmt.Sprintf("no batch comparator named %q", name), nil)
		respondError(c, err.StatusCode, "update failed", err)
		return
	}
	logger.WithFields(logrus.Fields{"processor": name, "enabled": *req.Enabled}).Info("Batch enablement changed")
	p, _ := s.Registry.FindByShortName(name)
	c.JSON(http.StatusOK, processor.Describe(p))
}

func (s *session) report(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing batch report request")

		var req models.ReportRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request format", err)
				return
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		summary, err := s.Reports.Run(ctx, s.Service.Original(), req.OutputDir, report.NewLogProgress(logger.Logger))
		if err != nil {
			respondError(c, determineStatusCode(err), "batch report failed", err)
			return
		}
		c.JSON(http.StatusOK, reportResponse(summary))
	}
}

func (s *session) metrics(c *gin.Context) {
	if s.Metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.Metrics.GetMetrics())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// respondOutcome names an image result after the displayed pair; area marks
// a result computed on a selected region.
func respondOutcome(c *gin.Context, out *service.Outcome, displayed processor.Pair, area bool) {
	resp := models.ProcessResponse{
		Processor:         out.Processor,
		Route:             string(out.Route),
		Text:              out.Text,
		ProcessingTimeSec: out.Elapsed.Seconds(),
	}
	if out.Image != nil {
		encoded, err := encodePNG(out.Image)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to encode result", err)
			return
		}
		resp.Image = encoded
		resp.FileName = displayed.ResultFileName(area) + ".png"
	}
	if out.Route == service.RouteFiltered {
		pair := pairResponse(out.Pair, true)
		resp.Pair = &pair
	}

	logger.WithFields(logrus.Fields{
		"processor":          out.Processor,
		"route":              out.Route,
		"processing_time_ms": out.Elapsed.Milliseconds(),
	}).Info("Processing completed successfully")
	c.JSON(http.StatusOK, resp)
}

func pairResponse(pair processor.Pair, withPixels bool) models.PairResponse {
	resp := models.PairResponse{
		FirstPath:  pair.First.Path,
		SecondPath: pair.Second.Path,
		Width:      pair.Size().X,
		Height:     pair.Size().Y,
	}
	if withPixels {
		// Both images were produced by a filter and encode cleanly.
		resp.First, _ = encodePNG(pair.First.Pixels)
		resp.Second, _ = encodePNG(pair.Second.Pixels)
	}
	return resp
}

func reportResponse(summary *report.Summary) models.ReportResponse {
	resp := models.ReportResponse{
		Location:  summary.Location,
		Outcome:   string(summary.Outcome()),
		Total:     summary.Total,
		Succeeded: summary.Succeeded(),
		Failed:    summary.Failed(),
		Cancelled: summary.Cancelled,
		Entries:   make([]models.ReportEntry, 0, len(summary.Entries)),
		Timestamp: time.Now().UTC(),
	}
	for _, e := range summary.Entries {
		entry := models.ReportEntry{
			Processor: e.Processor,
			Artifact:  e.Artifact,
			ElapsedMs: float64(e.Elapsed.Microseconds()) / 1000,
		}
		if e.Err != nil {
			entry.Error = e.Err.Error()
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return resp
}

func encodePNG(img *image.NRGBA) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func logRequest(c *gin.Context, message string) {
	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(message)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if _, ok := apperrors.As(err); ok {
		return apperrors.GetStatusCode(err)
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
