package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/phys-praktikum/fplab/internal/dataset"
)

type ExportData struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Seed       int64       `json:"seed"`
	Oscillator OscParams   `json:"oscillator"`
	Columns    []string    `json:"columns"`
	Rows       [][]float64 `json:"rows"`
}

func exportData(meta *DatasetMetadata, table dataset.Table) ExportData {
	return ExportData{
		ID:         meta.ID,
		Kind:       meta.Kind,
		Seed:       meta.Seed,
		Oscillator: meta.Oscillator,
		Columns:    table.Columns,
		Rows:       table.Rows,
	}
}

func writeJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSON writes a dataset with its metadata as indented JSON to path.
func ExportJSON(path string, meta *DatasetMetadata, table dataset.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return writeJSON(file, exportData(meta, table))
}

// ExportJSONStdout writes a dataset with its metadata as indented JSON to
// standard output.
func ExportJSONStdout(meta *DatasetMetadata, table dataset.Table) error {
	return writeJSON(os.Stdout, exportData(meta, table))
}
