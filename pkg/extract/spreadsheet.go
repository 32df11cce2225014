package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV joins cells with ", " per row and rows with newlines, tolerating a
// UTF-8 byte-order mark.
func readCSV(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("csv parse failed: %w", err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, ", "))
	}
	return strings.Join(lines, "\n"), nil
}

// readWorkbook renders each worksheet as a "Sheet: <name>" header followed by
// CSV-style rows (empty cells stay empty), sheets joined with a blank line in
// workbook order.
func readWorkbook(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	var sheets []string
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		var b strings.Builder
		b.WriteString("Sheet: ")
		b.WriteString(name)
		for _, row := range rows {
			b.WriteString("\n")
			b.WriteString(strings.Join(row, ", "))
		}
		sheets = append(sheets, b.String())
	}

	return strings.Join(sheets, "\n\n"), nil
}
