package file

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

type format int

const (
	formatPlain format = iota
	formatPDF
	formatCSV
	formatXLSX
)

func formatForPath(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return formatPlain, nil
	case ".pdf":
		return formatPDF, nil
	case ".csv":
		return formatCSV, nil
	case ".xlsx":
		return formatXLSX, nil
	default:
		return 0, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func loadFile(path string) (string, error) {
	f, err := formatForPath(path)
	if err != nil {
		return "", err
	}
	switch f {
	case formatPDF:
		return loadPDF(path)
	case formatCSV:
		return loadCSV(path)
	case formatXLSX:
		return loadXLSX(path)
	default:
		return loadPlain(path)
	}
}

func loadPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(raw), nil
}

func loadPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return string(raw), nil
}

func loadCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv %s: %w", path, err)
	}
	return renderRows(rows), nil
}

func loadXLSX(path string) (string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open spreadsheet %s: %w", path, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("spreadsheet %s has no sheets", path)
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read sheet %s of %s: %w", sheets[0], path, err)
	}
	return renderRows(rows), nil
}

// renderRows flattens a header+rows table into "key: value" lines, one blank
// line between records, so the chunker can split on record boundaries.
func renderRows(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	header := rows[0]

	var b strings.Builder
	for i, row := range rows[1:] {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for j, value := range row {
			if j > 0 {
				b.WriteByte('\n')
			}
			key := fmt.Sprintf("column_%d", j)
			if j < len(header) {
				key = header[j]
			}
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(value)
		}
	}
	return b.String()
}
