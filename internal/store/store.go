// Package store persists generated datasets as per-dataset directories with
// a metadata.json and a data.csv. The CSV carries a single comment header
// line naming the columns; cells are written at full precision so a load
// reproduces the saved values bit for bit.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phys-praktikum/fplab/internal/dataset"
	"github.com/phys-praktikum/fplab/internal/oscillator"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type OscParams struct {
	A0     float64 `json:"a0"`
	Omega0 float64 `json:"omega0"`
	Delta  float64 `json:"delta"`
	Phi    float64 `json:"phi"`
	Drive  float64 `json:"drive"`
}

func oscParams(o oscillator.Oscillator) OscParams {
	return OscParams{A0: o.A0, Omega0: o.Omega0, Delta: o.Delta, Phi: o.Phi, Drive: o.Drive}
}

// Sampling settings are recorded alongside the oscillator parameters so a
// dataset can be regenerated from metadata and seed alone.
type FreeSettings struct {
	Dt       float64 `json:"dt"`
	Duration float64 `json:"duration"`
	Sigma    float64 `json:"sigma"`
}

type DrivenSettings struct {
	OmegaMin   float64 `json:"omega_min"`
	OmegaMax   float64 `json:"omega_max"`
	Steps      int     `json:"steps"`
	SigmaAmp   float64 `json:"sigma_amp"`
	RelAmp     bool    `json:"rel_amp"`
	SigmaPhase float64 `json:"sigma_phase"`
}

type DatasetMetadata struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Timestamp  time.Time       `json:"timestamp"`
	Seed       int64           `json:"seed"`
	Oscillator OscParams       `json:"oscillator"`
	Free       *FreeSettings   `json:"free,omitempty"`
	Driven     *DrivenSettings `json:"driven,omitempty"`
	Columns    []string        `json:"columns"`
	Rows       int             `json:"rows"`
}

// SaveFree stores a free-decay series and returns its dataset ID.
func (s *Store) SaveFree(series *dataset.FreeSeries, seed int64) (string, error) {
	meta := DatasetMetadata{
		Kind:       "free",
		Seed:       seed,
		Oscillator: oscParams(series.Osc),
		Free: &FreeSettings{
			Dt:       series.Cfg.Dt,
			Duration: series.Cfg.Duration,
			Sigma:    series.Cfg.Sigma,
		},
	}
	return s.save(meta, series.Table())
}

// SaveDriven stores a frequency-sweep series and returns its dataset ID.
func (s *Store) SaveDriven(series *dataset.DrivenSeries, seed int64) (string, error) {
	meta := DatasetMetadata{
		Kind:       "driven",
		Seed:       seed,
		Oscillator: oscParams(series.Osc),
		Driven: &DrivenSettings{
			OmegaMin:   series.Cfg.OmegaMin,
			OmegaMax:   series.Cfg.OmegaMax,
			Steps:      series.Cfg.Steps,
			SigmaAmp:   series.Cfg.SigmaAmp,
			RelAmp:     series.Cfg.RelAmp,
			SigmaPhase: series.Cfg.SigmaPhase,
		},
	}
	return s.save(meta, series.Table())
}

func (s *Store) save(meta DatasetMetadata, table dataset.Table) (string, error) {
	meta.ID = fmt.Sprintf("%s_%d", meta.Kind, time.Now().UnixNano())
	meta.Timestamp = time.Now()
	meta.Columns = table.Columns
	meta.Rows = len(table.Rows)

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "data.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, table); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// WriteCSV writes a table to w: one "# col,col,..." comment line followed by
// the data rows. Cells use the shortest representation that parses back to
// the same float64.
func WriteCSV(w io.Writer, table dataset.Table) error {
	if _, err := fmt.Fprintf(w, "# %s\n", strings.Join(table.Columns, ",")); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	rec := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) List() ([]DatasetMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DatasetMetadata{}, nil
		}
		return nil, err
	}

	sets := make([]DatasetMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sets = append(sets, *meta)
	}

	return sets, nil
}

func (s *Store) Load(id string) (*DatasetMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta DatasetMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTable reads a stored dataset back into a table. Column names come from
// the metadata; a malformed cell is an error, not a skipped row.
func (s *Store) LoadTable(id string) (dataset.Table, error) {
	meta, err := s.Load(id)
	if err != nil {
		return dataset.Table{}, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, id, "data.csv"))
	if err != nil {
		return dataset.Table{}, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comment = '#'

	records, err := r.ReadAll()
	if err != nil {
		return dataset.Table{}, err
	}

	rows := make([][]float64, len(records))
	for i, record := range records {
		if len(record) != len(meta.Columns) {
			return dataset.Table{}, fmt.Errorf("store: row %d has %d cells for %d columns", i, len(record), len(meta.Columns))
		}
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return dataset.Table{}, fmt.Errorf("store: row %d column %s: %w", i, meta.Columns[j], err)
			}
			row[j] = v
		}
		rows[i] = row
	}

	return dataset.Table{Columns: meta.Columns, Rows: rows}, nil
}
