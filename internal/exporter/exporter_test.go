package exporter

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"golook/internal/dataset"
	"golook/pkg/units"
)

func reducedDataset() *dataset.Dataset {
	ds := dataset.New()
	ds.Set("Time", units.New([]float64{0.1, 0.2, 0.3}, units.MustParse("s")))
	ds.Set("Shear Stress", units.New([]float64{1.5, 2.25, 3}, units.MustParse("MPa")))
	ds.Set("Friction", units.New([]float64{0, 0.45, 0.6}, units.Dimensionless))
	return ds
}

func TestCSVWriteDataset(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	path, err := w.WriteDataset("p655.csv", reducedDataset())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")

	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Time (s)", "Shear Stress (MPa)", "Friction"}, records[0])
	assert.Equal(t, []string{"0.1", "1.5", "0"}, records[1])
	assert.Equal(t, []string{"0.3", "3", "0.6"}, records[3])
}

func TestCSVRejectsRaggedDataset(t *testing.T) {
	ds := reducedDataset()
	ds.Set("Broken", units.New([]float64{1}, units.Bit))

	_, err := NewCSVWriter(t.TempDir()).WriteDataset("bad.csv", ds)
	assert.ErrorIs(t, err, dataset.ErrRaggedDataset)
}

func TestExcelWriteDataset(t *testing.T) {
	dir := t.TempDir()
	w := NewExcelWriter(dir)

	path, err := w.WriteDataset("p655.xlsx", reducedDataset())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Time (s)", "Shear Stress (MPa)", "Friction"}, rows[0])

	channels, err := f.GetRows(ChannelsSheet)
	require.NoError(t, err)
	require.Len(t, channels, 4)
	assert.Equal(t, []string{"Channel", "Unit", "Samples"}, channels[0])
	assert.Equal(t, "Shear Stress", channels[2][0])
	assert.Equal(t, "MPa", channels[2][1])
}
