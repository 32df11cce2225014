package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/promptdesk/promptdesk/pkg/imaging"
)

// Large decks would otherwise dominate the prompt, so the text side of a
// presentation is a bounded structured summary rather than a raw dump.
const (
	shapeTextLimit = 500
	notesTextLimit = 300
	deckTextLimit  = 2000
	truncationMark = "..."
)

var (
	slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	notesPartRe = regexp.MustCompile(`^ppt/notesSlides/notesSlide(\d+)\.xml$`)
)

// readPowerPoint summarizes a .pptx deck: per slide, shape texts (each
// truncated) joined with " | ", then the slide's notes (separately truncated),
// the whole output hard-capped at deckTextLimit with an ellipsis marker.
// Every media image is normalized and collected regardless of text truncation.
func readPowerPoint(path string) (Content, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Content{}, fmt.Errorf("failed to open pptx zip: %w", err)
	}
	defer r.Close()

	slides := map[int]*zip.File{}
	notes := map[int]*zip.File{}
	var mediaFiles []*zip.File
	for _, f := range r.File {
		if m := slidePartRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides[n] = f
		} else if m := notesPartRe.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			notes[n] = f
		} else if strings.HasPrefix(f.Name, "ppt/media/") {
			mediaFiles = append(mediaFiles, f)
		}
	}

	var order []int
	for n := range slides {
		order = append(order, n)
	}
	sort.Ints(order)

	var lines []string
	for _, n := range order {
		shapes, err := parseSlideShapes(slides[n])
		if err != nil {
			return Content{}, fmt.Errorf("slide %d: %w", n, err)
		}
		line := fmt.Sprintf("Slide %d: %s", n, strings.Join(shapes, " | "))
		if nf, ok := notes[n]; ok {
			if noteShapes, err := parseSlideShapes(nf); err == nil && len(noteShapes) > 0 {
				line += "\nNotes: " + truncate(strings.Join(noteShapes, " "), notesTextLimit)
			}
		}
		lines = append(lines, line)
	}

	text := truncate(strings.Join(lines, "\n"), deckTextLimit)

	sort.Slice(mediaFiles, func(i, j int) bool { return mediaFiles[i].Name < mediaFiles[j].Name })
	var images []imaging.Image
	for _, mf := range mediaFiles {
		data, err := readZipFile(mf)
		if err != nil {
			zap.L().Warn("pptx media part unreadable, skipping",
				zap.String("part", mf.Name), zap.Error(err))
			continue
		}
		img, err := imaging.Normalize(data, false)
		if err != nil {
			continue
		}
		images = append(images, img)
	}

	return Content{Text: text, Images: images}, nil
}

// parseSlideShapes returns one truncated text per shape on the slide. A shape
// is a <p:txBody>; its runs are the <a:t> elements inside it.
func parseSlideShapes(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var shapes []string
	var current strings.Builder
	inBody := false
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
			case "txBody":
				inBody = true
				current.Reset()
			case "t":
				inText = true
			}
		case xml.CharData:
			if inBody && inText {
				current.Write(se)
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inText = false
			case "txBody":
				if inBody {
					if text := strings.TrimSpace(current.String()); text != "" {
						shapes = append(shapes, truncate(text, shapeTextLimit))
					}
				}
				inBody = false
			}
		}
	}

	return shapes, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - len(truncationMark)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMark
}
