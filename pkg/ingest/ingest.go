// Package ingest is the single entry point that turns a local file path into
// the canonical (text, images) shape. It resolves a FileKind once from the
// extension, enforces the size limit before any parse, and dispatches to the
// matching extractor through a handler table.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/promptdesk/promptdesk/pkg/extract"
	"github.com/promptdesk/promptdesk/pkg/imaging"
)

// DefaultMaxFileSize bounds how much the ingestor will even attempt to parse.
const DefaultMaxFileSize = 100 << 20 // 100 MiB

// Kind is the closed set of file categories the ingestor understands.
// It is resolved exactly once, from the extension; nothing downstream
// re-inspects the path.
type Kind int

const (
	KindUnknown Kind = iota
	KindDocument
	KindSpreadsheet
	KindImage
	KindAudio
)

var kindByExt = map[string]Kind{
	".docx": KindDocument, ".doc": KindDocument,
	".pdf":  KindDocument,
	".pptx": KindDocument, ".ppt": KindDocument,
	".rtf": KindDocument, ".odt": KindDocument,
	".txt": KindDocument, ".md": KindDocument,
	".html": KindDocument, ".htm": KindDocument,
	".csv": KindSpreadsheet, ".xlsx": KindSpreadsheet, ".xls": KindSpreadsheet,
	".jpg": KindImage, ".jpeg": KindImage, ".png": KindImage,
	".gif": KindImage, ".bmp": KindImage,
	".mp3": KindAudio, ".wav": KindAudio, ".ogg": KindAudio, ".m4a": KindAudio,
}

// KindOf resolves the FileKind for a path, case-insensitively.
func KindOf(path string) Kind {
	return kindByExt[strings.ToLower(filepath.Ext(path))]
}

// FileTooLargeError rejects a file before any format-specific parse attempt.
type FileTooLargeError struct {
	Path string
	Size int64
	Max  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s exceeds the maximum allowed size of %d MB",
		e.Path, e.Max/(1024*1024))
}

type handler func(ctx context.Context, path string) (extract.Content, error)

// Ingestor dispatches paths to extractors and aggregates context file sets.
type Ingestor struct {
	MaxFileSize int64

	handlers map[Kind]handler
}

func New() *Ingestor {
	in := &Ingestor{MaxFileSize: DefaultMaxFileSize}
	in.handlers = map[Kind]handler{
		KindDocument:    func(_ context.Context, p string) (extract.Content, error) { return extract.Document(p) },
		KindSpreadsheet: func(_ context.Context, p string) (extract.Content, error) { return extract.Spreadsheet(p) },
		KindImage:       ingestImage,
		KindAudio:       ingestAudio,
	}
	return in
}

// Ingest produces the canonical content for a single file. The size gate runs
// before the handler table is consulted, so an oversized file never reaches a
// parser.
func (in *Ingestor) Ingest(ctx context.Context, path string) (extract.Content, error) {
	if err := ctx.Err(); err != nil {
		return extract.Content{}, err
	}

	kind := KindOf(path)
	if kind == KindUnknown {
		return extract.Content{}, &extract.UnsupportedFormatError{Ext: strings.ToLower(filepath.Ext(path))}
	}

	info, err := os.Stat(path)
	if err != nil {
		return extract.Content{}, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if info.Size() > in.MaxFileSize {
		return extract.Content{}, &FileTooLargeError{Path: path, Size: info.Size(), Max: in.MaxFileSize}
	}

	zap.L().Debug("ingesting file", zap.String("path", path), zap.Int64("size", info.Size()))

	// Run the handler off the calling goroutine so a wedged parser cannot
	// block past the caller's deadline. The buffered channel lets the
	// abandoned handler finish and exit on its own.
	type result struct {
		content extract.Content
		err     error
	}
	done := make(chan result, 1)
	go func() {
		content, err := in.handlers[kind](ctx, path)
		done <- result{content, err}
	}()

	select {
	case <-ctx.Done():
		return extract.Content{}, ctx.Err()
	case r := <-done:
		return r.content, r.err
	}
}

// IngestContextSet resolves each path independently and concatenates the
// results in input order, each section labeled with the file's display name.
// One file's failure degrades to an inline error line; it never aborts the
// set. Context images are described, not embedded, keeping the block
// provider-agnostic.
func (in *Ingestor) IngestContextSet(ctx context.Context, paths []string) string {
	var sections []string
	for _, path := range paths {
		name := filepath.Base(path)

		// Images go through the full ingest path too, so a missing or
		// undecodable context image degrades to an error line like any
		// other file. Only the descriptive text is kept; the normalized
		// image itself is dropped.
		content, err := in.Ingest(ctx, path)
		if err != nil {
			zap.L().Warn("context file failed, rendering inline error",
				zap.String("path", path), zap.Error(err))
			sections = append(sections, fmt.Sprintf("Error reading %s: %v\n", name, err))
			continue
		}
		sections = append(sections, fmt.Sprintf("Content of %s:\n%s\n", name, content.Text))
	}
	return strings.Join(sections, "\n")
}

// ingestImage wraps a raster file as descriptive text plus its one normalized
// image.
func ingestImage(_ context.Context, path string) (extract.Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return extract.Content{}, fmt.Errorf("error processing image file %s: %w", path, err)
	}
	format, w, h, err := imaging.Info(raw)
	if err != nil {
		return extract.Content{}, fmt.Errorf("error processing image file %s: %w", path, err)
	}
	img, err := imaging.Normalize(raw, false)
	if err != nil {
		return extract.Content{}, fmt.Errorf("error processing image file %s: %w", path, err)
	}
	text := fmt.Sprintf("Image file: %s\nFormat: %s, Size: %dx%d", path, format, w, h)
	return extract.Content{Text: text, Images: []imaging.Image{img}}, nil
}

// ingestAudio short-circuits to a placeholder; transcription happens on the
// provider path, which needs the original file, not extracted content.
func ingestAudio(_ context.Context, path string) (extract.Content, error) {
	return extract.Content{Text: fmt.Sprintf("Audio file: %s", path)}, nil
}

// ListSupported returns the supported regular files in dir, sorted by name.
// Office lock files ("~$...") are skipped.
func ListSupported(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		if KindOf(entry.Name()) == KindUnknown {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
