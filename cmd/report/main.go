// Command report writes the batch comparison report of two images.
//
//	report [-workers N] [-out DIR] [-skip NAME,NAME] first [second]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-compare-go/internal/config"
	"github.com/anime-shed/image-compare-go/internal/container"
	"github.com/anime-shed/image-compare-go/internal/logger"
	"github.com/anime-shed/image-compare-go/internal/report"
)

const (
	exitOK = iota
	exitNoneSucceeded
	exitError
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	workers := fs.Int("workers", 0, "comparators computed concurrently (default BATCH_WORKERS)")
	out := fs.String("out", "", "report root directory for the local report backend")
	skip := fs.String("skip", "", "comma separated comparators to leave out")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: report [-workers N] [-out DIR] [-skip NAME,NAME] first [second]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return exitError
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitError
	}
	if *workers > 0 {
		cfg.BatchWorkers = *workers
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize container: %v\n", err)
		return exitError
	}
	for _, name := range strings.Split(*skip, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		if !c.Registry().SetEnabledInAutoReport(name, false) {
			logger.WithField("processor", name).Warn("Not a batch comparator; ignoring")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pair, err := c.Repository().LoadPair(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		logger.WithError(err).Error("Failed to load images")
		return exitError
	}

	summary, err := c.Reports().Run(ctx, pair, *out, report.NewLogProgress(logger.Logger))
	if err != nil {
		logger.WithError(err).Error("Batch report failed")
		return exitError
	}

	for _, e := range summary.Failures() {
		logger.WithFields(logrus.Fields{"processor": e.Processor}).WithError(e.Err).Warn("Comparator failed")
	}
	fmt.Printf("%d of %d comparators succeeded (%s): %s\n",
		summary.Succeeded(), summary.Total, summary.Outcome(), summary.Location)

	if summary.Outcome() == report.OutcomeNone {
		return exitNoneSucceeded
	}
	return exitOK
}
