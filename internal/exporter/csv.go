package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golook/internal/dataset"
)

// CSVWriter exports datasets as CSV files under a base directory.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a CSV writer rooted at dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// WriteDataset writes one dataset to a CSV file, one row per sample, with
// unit-labeled headers. A UTF-8 BOM is prepended so Excel opens the file
// correctly. Returns the full path written.
func (w *CSVWriter) WriteDataset(filename string, ds *dataset.Dataset) (string, error) {
	rows, err := ds.Rows()
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(w.dir, filename)
	slog.Info("Writing CSV export",
		slog.String("path", fullPath),
		slog.Int("channels", ds.Len()),
		slog.Int("rows", rows))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	names := ds.Names()
	header := make([]string, len(names))
	for i, name := range names {
		q, _ := ds.Get(name)
		header[i] = columnHeader(name, q.Unit())
	}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(names))
	for row := 0; row < rows; row++ {
		for i, name := range names {
			q, _ := ds.Get(name)
			record[i] = formatSample(q.At(row))
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", row, err)
		}
	}

	writer.Flush()
	return fullPath, writer.Error()
}
