package extract

import (
	"bytes"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

// readText handles txt/md/html. Markdown is rendered to HTML first, and HTML
// (including markdown's rendered output) is stripped to plain text, discarding
// all markup.
func readText(path, ext string) (Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Content{}, err
	}

	switch ext {
	case ".md":
		var rendered bytes.Buffer
		if err := goldmark.Convert(raw, &rendered); err != nil {
			return Content{}, err
		}
		text, err := stripHTML(rendered.Bytes())
		if err != nil {
			return Content{}, err
		}
		return Content{Text: text}, nil
	case ".html", ".htm":
		text, err := stripHTML(raw)
		if err != nil {
			return Content{}, err
		}
		return Content{Text: text}, nil
	default:
		return Content{Text: string(raw)}, nil
	}
}

func stripHTML(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return doc.Text(), nil
}

// readRTF reads the file as raw text with no markup interpretation; bytes
// that are not valid UTF-8 are dropped rather than failing the read.
func readRTF(path string) (Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Content{}, err
	}
	return Content{Text: strings.ToValidUTF8(string(raw), "")}, nil
}

// readODT deliberately degrades: callers treat any returned content as usable
// context, so the unsupported format becomes a fixed notice instead of an error.
func readODT(string) (Content, error) {
	return Content{Text: "ODT file format is not supported yet."}, nil
}
