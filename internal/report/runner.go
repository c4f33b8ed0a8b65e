package report

import (
	"context"

	"github.com/anime-shed/image-compare-go/internal/processor"
)

// WriterFactory opens the report writer for a pair. outDir may be empty.
type WriterFactory interface {
	CreateReportWriter(pair processor.Pair, outDir string) (Writer, error)
}

// Runner opens a writer for each request and runs the pipeline into it.
type Runner struct {
	pipeline *Pipeline
	writers  WriterFactory
}

func NewRunner(pipeline *Pipeline, writers WriterFactory) *Runner {
	return &Runner{pipeline: pipeline, writers: writers}
}

// Run writes the batch report of pair.
func (r *Runner) Run(ctx context.Context, pair processor.Pair, outDir string, sink ProgressSink) (*Summary, error) {
	if err := processor.ValidateImages(pair.First, pair.Second); err != nil {
		return nil, err
	}
	w, err := r.writers.CreateReportWriter(pair, outDir)
	if err != nil {
		return nil, err
	}
	return r.pipeline.Run(ctx, pair, w, sink)
}
