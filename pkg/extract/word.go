package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

// readWord extracts paragraph text and embedded media from a .docx container
// (a zip holding word/document.xml and word/media/*). Non-empty paragraphs are
// joined with blank lines; every media part is normalized, and ones that fail
// to decode are skipped.
func readWord(path string) (Content, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Content{}, fmt.Errorf("failed to open docx zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	var mediaFiles []*zip.File
	for _, f := range r.File {
		switch {
		case f.Name == "word/document.xml":
			docFile = f
		case strings.HasPrefix(f.Name, "word/media/"):
			mediaFiles = append(mediaFiles, f)
		}
	}
	if docFile == nil {
		return Content{}, errors.New("invalid docx: word/document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Content{}, err
	}
	defer rc.Close()

	paragraphs, err := parseWordXML(rc)
	if err != nil {
		return Content{}, err
	}

	// Relationship order inside the zip is not guaranteed; sort by part name
	// so image order is stable across reads.
	sort.Slice(mediaFiles, func(i, j int) bool { return mediaFiles[i].Name < mediaFiles[j].Name })

	var images []imaging.Image
	for _, mf := range mediaFiles {
		data, err := readZipFile(mf)
		if err != nil {
			zap.L().Warn("docx media part unreadable, skipping",
				zap.String("part", mf.Name), zap.Error(err))
			continue
		}
		img, err := imaging.Normalize(data, false)
		if err != nil {
			continue
		}
		images = append(images, img)
	}

	return Content{Text: strings.Join(paragraphs, "\n\n"), Images: images}, nil
}

// parseWordXML streams word/document.xml and collects the text of each
// non-empty paragraph (<w:p>, text runs in <w:t>).
func parseWordXML(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false
	inText := false

	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch se := t.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = true
			}
		case xml.CharData:
			if inParagraph && inText {
				current.Write(se)
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inText = false
			case "p":
				if inParagraph {
					if text := current.String(); strings.TrimSpace(text) != "" {
						paragraphs = append(paragraphs, text)
					}
				}
				inParagraph = false
			}
		}
	}

	return paragraphs, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
