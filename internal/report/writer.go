package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
)

// Writer persists batch artefacts. Images are written as they arrive, text
// sections are collected and flushed with the summary on Close.
type Writer interface {
	WriteImage(ctx context.Context, name string, img *image.NRGBA) (string, error)
	AppendText(title, html string) error
	Close(ctx context.Context, summary *Summary) error
	Location() string
}

// ArtifactName turns a processor name into a file name stem.
func ArtifactName(processorName string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(processorName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// DirWriter writes PNG images and report.html into a local directory.
type DirWriter struct {
	dir string
	doc document
}

// NewDirWriter creates the report directory dir.
func NewDirWriter(dir, title string) (*DirWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("failed to create report directory", err).WithDetails(dir)
	}
	return &DirWriter{dir: dir, doc: document{title: title}}, nil
}

func (w *DirWriter) Location() string { return w.dir }

func (w *DirWriter) WriteImage(ctx context.Context, name string, img *image.NRGBA) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file := name + ".png"
	if err := imaging.Save(img, filepath.Join(w.dir, file)); err != nil {
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	return file, nil
}

func (w *DirWriter) AppendText(title, html string) error {
	w.doc.append(title, html)
	return nil
}

func (w *DirWriter) Close(ctx context.Context, summary *Summary) error {
	if err := os.WriteFile(filepath.Join(w.dir, reportFileName), w.doc.render(summary), 0o644); err != nil {
		return apperrors.NewInternalError("failed to write report", err)
	}
	return nil
}

// Uploader stores a named object, typically in blob storage.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
}

// BlobWriter uploads the same artefacts as DirWriter under a name prefix.
type BlobWriter struct {
	uploader Uploader
	prefix   string
	doc      document
}

// NewBlobWriter creates a writer that uploads under prefix.
func NewBlobWriter(uploader Uploader, prefix, title string) *BlobWriter {
	return &BlobWriter{uploader: uploader, prefix: prefix, doc: document{title: title}}
}

func (w *BlobWriter) Location() string { return w.prefix }

func (w *BlobWriter) WriteImage(ctx context.Context, name string, img *image.NRGBA) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	file := name + ".png"
	if err := w.uploader.Upload(ctx, path.Join(w.prefix, file), buf.Bytes(), "image/png"); err != nil {
		return "", err
	}
	return file, nil
}

func (w *BlobWriter) AppendText(title, html string) error {
	w.doc.append(title, html)
	return nil
}

func (w *BlobWriter) Close(ctx context.Context, summary *Summary) error {
	data := w.doc.render(summary)
	if err := w.uploader.Upload(ctx, path.Join(w.prefix, reportFileName), data, "text/html; charset=utf-8"); err != nil {
		return apperrors.NewNetworkError("failed to upload report", err)
	}
	return nil
}
