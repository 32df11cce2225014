package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

// readPDF extracts per-page text with ledongthuc/pdf and embedded raster
// images with pdfcpu. Page texts are trimmed and joined with blank lines in
// page order; images that fail extraction or decoding are skipped.
func readPDF(path string) (Content, error) {
	text, err := pdfText(path)
	if err != nil {
		return Content{}, err
	}

	images, err := pdfImages(path)
	if err != nil {
		// The file may simply carry no extractable images; text alone is a
		// usable result.
		zap.L().Warn("pdf image extraction failed, continuing with text only",
			zap.String("path", path), zap.Error(err))
		images = nil
	}

	return Content{Text: text, Images: images}, nil
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// pdfImages buffers pdfcpu's extracted images through a temp dir, then
// normalizes each one. Extraction order follows pdfcpu's page-indexed file
// names, sorted for stability.
func pdfImages(path string) ([]imaging.Image, error) {
	tempDir, err := os.MkdirTemp("", "promptdesk_pdf_img_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTIMAGES
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ExtractImagesFile(path, tempDir, nil, conf); err != nil {
		return nil, fmt.Errorf("pdfcpu extraction failed: %w", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var images []imaging.Image
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(tempDir, name))
		if err != nil {
			continue
		}
		img, err := imaging.Normalize(data, false)
		if err != nil {
			continue
		}
		images = append(images, img)
	}

	return images, nil
}
