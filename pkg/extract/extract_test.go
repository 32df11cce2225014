package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeZip builds an OOXML-style container in dir and returns its path.
func writeZip(t *testing.T, dir, name string, parts map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for partName, data := range parts {
		pw, err := w.Create(partName)
		if err != nil {
			t.Fatalf("failed to create zip part %s: %v", partName, err)
		}
		if _, err := pw.Write(data); err != nil {
			t.Fatalf("failed to write zip part %s: %v", partName, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return path
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 12, 12))); err != nil {
		t.Fatalf("failed to encode png fixture: %v", err)
	}
	return buf.Bytes()
}

func wordXML(paragraphs ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	b.WriteString(`</w:body></w:document>`)
	return []byte(b.String())
}

func slideXML(shapeTexts ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>`)
	for _, s := range shapeTexts {
		fmt.Fprintf(&b, `<p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, s)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return []byte(b.String())
}

func TestWordExtraction(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, "report.docx", map[string][]byte{
		"word/document.xml":   wordXML("First paragraph", "", "  ", "Second paragraph"),
		"word/media/img1.png": pngBytes(t),
		"word/media/bad.bin":  []byte("not an image"),
	})

	content, err := Document(path)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if want := "First paragraph\n\nSecond paragraph"; content.Text != want {
		t.Fatalf("unexpected text %q, want %q", content.Text, want)
	}
	if len(content.Images) != 1 {
		t.Fatalf("expected 1 image (undecodable one skipped), got %d", len(content.Images))
	}
	raw, err := content.Images[0].Bytes()
	if err != nil {
		t.Fatalf("image is not valid base64: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("normalized image is not JPEG: %v", err)
	}
}

func TestWordMissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, "broken.docx", map[string][]byte{
		"word/other.xml": []byte("<x/>"),
	})

	_, err := Document(path)
	var readErr *DocumentReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected DocumentReadError, got %v", err)
	}
	if readErr.Path != path {
		t.Fatalf("error carries wrong path: %q", readErr.Path)
	}
}

func TestPowerPointSummaryIsCapped(t *testing.T) {
	dir := t.TempDir()
	parts := map[string][]byte{"ppt/media/image1.png": pngBytes(t)}
	verbose := strings.Repeat("All work and no play makes a dull slide. ", 20)
	for i := 1; i <= 50; i++ {
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i)] = slideXML("Title "+fmt.Sprint(i), verbose)
	}

	content, err := Document(writeZip(t, dir, "deck.pptx", parts))
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if len(content.Text) > deckTextLimit {
		t.Fatalf("deck text exceeds cap: %d > %d", len(content.Text), deckTextLimit)
	}
	if !strings.HasSuffix(content.Text, truncationMark) {
		t.Fatalf("capped text lacks truncation marker: %q", content.Text[len(content.Text)-20:])
	}
	if !strings.HasPrefix(content.Text, "Slide 1: Title 1 | ") {
		t.Fatalf("unexpected summary prefix: %q", content.Text[:40])
	}
	// Text truncation must not affect image collection.
	if len(content.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(content.Images))
	}
}

func TestPowerPointNotesAndOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, "deck.pptx", map[string][]byte{
		"ppt/slides/slide2.xml":           slideXML("Second"),
		"ppt/slides/slide1.xml":           slideXML("First"),
		"ppt/notesSlides/notesSlide1.xml": slideXML("Speaker notes here"),
	})

	content, err := Document(path)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	want := "Slide 1: First\nNotes: Speaker notes here\nSlide 2: Second"
	if content.Text != want {
		t.Fatalf("unexpected summary:\n%q\nwant:\n%q", content.Text, want)
	}
}

func TestRTFDropsInvalidBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.rtf")
	if err := os.WriteFile(path, []byte("{\\rtf1 plain \xff\xfe text}"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	content, err := Document(path)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if !strings.Contains(content.Text, "plain") || strings.ContainsRune(content.Text, 0xFFFD) {
		t.Fatalf("unexpected rtf text: %q", content.Text)
	}
}

func TestODTDegradesToNotice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.odt")
	if err := os.WriteFile(path, []byte("irrelevant"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	content, err := Document(path)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if content.Text != "ODT file format is not supported yet." {
		t.Fatalf("unexpected odt notice: %q", content.Text)
	}
	if len(content.Images) != 0 {
		t.Fatalf("odt must return no images")
	}
}

func TestMarkdownAndHTMLAreStripped(t *testing.T) {
	dir := t.TempDir()

	md := filepath.Join(dir, "readme.md")
	if err := os.WriteFile(md, []byte("# Heading\n\nSome *emphasis* here."), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	content, err := Document(md)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if strings.ContainsAny(content.Text, "<>#*") {
		t.Fatalf("markup survived stripping: %q", content.Text)
	}
	if !strings.Contains(content.Text, "Heading") || !strings.Contains(content.Text, "emphasis") {
		t.Fatalf("text content lost: %q", content.Text)
	}

	html := filepath.Join(dir, "page.html")
	page := `<html><head><style>body{}</style></head><body><script>var x;</script><p>Visible text</p></body></html>`
	if err := os.WriteFile(html, []byte(page), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	content, err = Document(html)
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}
	if !strings.Contains(content.Text, "Visible text") {
		t.Fatalf("visible text lost: %q", content.Text)
	}
	if strings.Contains(content.Text, "var x") || strings.Contains(content.Text, "body{}") {
		t.Fatalf("script/style content leaked: %q", content.Text)
	}
}

func TestDocumentUnknownExtension(t *testing.T) {
	_, err := Document("something.xyz")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if unsupported.Ext != ".xyz" {
		t.Fatalf("error names wrong extension: %q", unsupported.Ext)
	}
}

func TestDocumentWrapsIOFailures(t *testing.T) {
	_, err := Document(filepath.Join(t.TempDir(), "missing.docx"))
	var readErr *DocumentReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected DocumentReadError, got %v", err)
	}
}

func TestCSVWithBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b,c\n1,2,3\n")...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	content, err := Spreadsheet(path)
	if err != nil {
		t.Fatalf("Spreadsheet returned error: %v", err)
	}
	if want := "a, b, c\n1, 2, 3"; content.Text != want {
		t.Fatalf("unexpected csv text %q, want %q", content.Text, want)
	}
	if len(content.Images) != 0 {
		t.Fatalf("spreadsheets never carry images")
	}
}

func TestWorkbookRendering(t *testing.T) {
	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", "Revenue"); err != nil {
		t.Fatalf("failed to rename sheet: %v", err)
	}
	if err := wb.SetCellValue("Revenue", "A1", "region"); err != nil {
		t.Fatalf("failed to set cell: %v", err)
	}
	if err := wb.SetCellValue("Revenue", "B1", "total"); err != nil {
		t.Fatalf("failed to set cell: %v", err)
	}
	if err := wb.SetCellValue("Revenue", "A2", "north"); err != nil {
		t.Fatalf("failed to set cell: %v", err)
	}
	if err := wb.SetCellValue("Revenue", "B2", 42); err != nil {
		t.Fatalf("failed to set cell: %v", err)
	}
	if _, err := wb.NewSheet("Costs"); err != nil {
		t.Fatalf("failed to add sheet: %v", err)
	}
	if err := wb.SetCellValue("Costs", "A1", "rent"); err != nil {
		t.Fatalf("failed to set cell: %v", err)
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}

	content, err := Spreadsheet(path)
	if err != nil {
		t.Fatalf("Spreadsheet returned error: %v", err)
	}
	if !strings.HasPrefix(content.Text, "Sheet: Revenue\nregion, total\nnorth, 42") {
		t.Fatalf("unexpected workbook text:\n%q", content.Text)
	}
	if !strings.Contains(content.Text, "\n\nSheet: Costs\nrent") {
		t.Fatalf("second sheet missing or unseparated:\n%q", content.Text)
	}
}

func TestSpreadsheetErrors(t *testing.T) {
	var unsupported *UnsupportedFormatError
	if _, err := Spreadsheet("data.parquet"); !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}

	var readErr *SpreadsheetReadError
	if _, err := Spreadsheet(filepath.Join(t.TempDir(), "missing.csv")); !errors.As(err, &readErr) {
		t.Fatalf("expected SpreadsheetReadError, got %v", err)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	s := strings.Repeat("é", 400)
	got := truncate(s, 101)
	if len(got) > 101 {
		t.Fatalf("truncate overflowed: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, truncationMark) {
		t.Fatalf("missing truncation marker: %q", got)
	}
	if !strings.ContainsRune(got, 'é') || strings.ContainsRune(got, 0xFFFD) {
		t.Fatalf("truncate split a rune: %q", got)
	}
}

func TestTruncateTinyLimit(t *testing.T) {
	for limit := 0; limit <= len(truncationMark); limit++ {
		if got := truncate("abcdefgh", limit); got != truncationMark {
			t.Fatalf("truncate(limit=%d) = %q, want bare marker", limit, got)
		}
	}
}
