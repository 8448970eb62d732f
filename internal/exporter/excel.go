package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"golook/internal/dataset"
)

// Sheet names used in exported workbooks.
const (
	DataSheet     = "Data"
	ChannelsSheet = "Channels"
)

// ExcelWriter exports datasets as Excel workbooks under a base directory.
type ExcelWriter struct {
	dir string
}

// NewExcelWriter creates an Excel writer rooted at dir.
func NewExcelWriter(dir string) *ExcelWriter {
	return &ExcelWriter{dir: dir}
}

// WriteDataset writes a workbook with two sheets: Data holds the samples
// under unit-labeled headers, Channels holds per-channel metadata (name,
// unit, sample count). Returns the full path written.
func (w *ExcelWriter) WriteDataset(filename string, ds *dataset.Dataset) (string, error) {
	rows, err := ds.Rows()
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(w.dir, filename)
	slog.Info("Writing Excel export",
		slog.String("path", fullPath),
		slog.Int("channels", ds.Len()),
		slog.Int("rows", rows))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DataSheet); err != nil {
		return "", fmt.Errorf("failed to name data sheet: %w", err)
	}

	names := ds.Names()
	for i, name := range names {
		q, _ := ds.Get(name)
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(DataSheet, cell, columnHeader(name, q.Unit())); err != nil {
			return "", fmt.Errorf("failed to write header %q: %w", name, err)
		}
	}

	for row := 0; row < rows; row++ {
		for i, name := range names {
			q, _ := ds.Get(name)
			cell, err := excelize.CoordinatesToCellName(i+1, row+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(DataSheet, cell, q.At(row)); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if err := w.writeChannelsSheet(f, ds, rows); err != nil {
		return "", err
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return fullPath, nil
}

// writeChannelsSheet adds the metadata sheet listing each channel's unit.
func (w *ExcelWriter) writeChannelsSheet(f *excelize.File, ds *dataset.Dataset, rows int) error {
	if _, err := f.NewSheet(ChannelsSheet); err != nil {
		return fmt.Errorf("failed to create channels sheet: %w", err)
	}

	headers := []string{"Channel", "Unit", "Samples"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(ChannelsSheet, cell, h); err != nil {
			return err
		}
	}

	for row, name := range ds.Names() {
		q, _ := ds.Get(name)
		values := []interface{}{name, q.Unit().String(), rows}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(ChannelsSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
