package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phys-praktikum/fplab/internal/dataset"
	"github.com/phys-praktikum/fplab/internal/oscillator"
)

func freeSeries(t *testing.T) *dataset.FreeSeries {
	t.Helper()
	osc := oscillator.New()
	series, err := dataset.NewGenerator(osc, 42).Free(dataset.FreeConfig{
		Dt:       0.1,
		Duration: 0.5,
		Sigma:    0.02,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return series
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	series := freeSeries(t)
	id, err := st.SaveFree(series, 42)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id == "" {
		t.Error("expected non-empty dataset id")
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Kind != "free" {
		t.Errorf("expected kind 'free', got '%s'", meta.Kind)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Rows != len(series.Samples) {
		t.Errorf("expected %d rows, got %d", len(series.Samples), meta.Rows)
	}
	if meta.Oscillator.Delta != series.Osc.Delta {
		t.Errorf("expected delta %v, got %v", series.Osc.Delta, meta.Oscillator.Delta)
	}
	if meta.Free == nil || meta.Free.Dt != 0.1 || meta.Free.Sigma != 0.02 {
		t.Errorf("free settings = %+v, want dt 0.1 sigma 0.02", meta.Free)
	}
	if meta.Driven != nil {
		t.Error("free dataset carries driven settings")
	}
}

func TestSaveDrivenRecordsSettings(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	series, err := dataset.NewGenerator(oscillator.New(), 7).Driven(dataset.DrivenConfig{
		OmegaMin: 1, OmegaMax: 12, Steps: 20, SigmaAmp: 0.01, RelAmp: true,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	id, err := st.SaveDriven(series, 7)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Driven == nil {
		t.Fatal("driven settings missing from metadata")
	}
	if meta.Driven.Steps != 20 || !meta.Driven.RelAmp || meta.Driven.OmegaMax != 12 {
		t.Errorf("driven settings = %+v, want the generating config", meta.Driven)
	}
	if meta.Free != nil {
		t.Error("driven dataset carries free settings")
	}
}

func TestLoadTableRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	series := freeSeries(t)
	want := series.Table()

	id, err := st.SaveFree(series, 42)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := st.LoadTable(id)
	if err != nil {
		t.Fatalf("load table failed: %v", err)
	}

	if len(got.Columns) != len(want.Columns) || got.Columns[1] != "position" {
		t.Fatalf("columns = %v, want %v", got.Columns, want.Columns)
	}
	if len(got.Rows) != len(want.Rows) {
		t.Fatalf("expected %d rows, got %d", len(want.Rows), len(got.Rows))
	}
	for i := range want.Rows {
		for j := range want.Rows[i] {
			if got.Rows[i][j] != want.Rows[i][j] {
				t.Errorf("cell (%d,%d) = %v, want exactly %v", i, j, got.Rows[i][j], want.Rows[i][j])
			}
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	sets, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("expected 0 datasets, got %d", len(sets))
	}

	if _, err := st.SaveFree(freeSeries(t), 42); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	sets, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("expected 1 dataset, got %d", len(sets))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	id, err := st.SaveFree(freeSeries(t), 42)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	dir := filepath.Join(tmpDir, id)
	if _, err := os.Stat(filepath.Join(dir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}

	data, err := os.ReadFile(filepath.Join(dir, "data.csv"))
	if err != nil {
		t.Fatalf("data.csv not created: %v", err)
	}
	if !strings.HasPrefix(string(data), "# time,position,uncertainty\n") {
		t.Errorf("data.csv does not start with the column comment:\n%s", string(data)[:60])
	}
}

func TestLoadTableRejectsCorruptCell(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	id, err := st.SaveFree(freeSeries(t), 42)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	path := filepath.Join(tmpDir, id, "data.csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("1.0,oops,0.02\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := st.LoadTable(id); err == nil {
		t.Error("expected error for corrupt cell")
	}
}

func TestExportCSV(t *testing.T) {
	series := freeSeries(t)
	table := series.Table()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(table.Rows)+1 {
		t.Errorf("expected %d lines, got %d", len(table.Rows)+1, len(lines))
	}
	if !strings.HasPrefix(lines[0], "# ") {
		t.Errorf("header line = %q, want comment", lines[0])
	}
}

func TestExportJSON(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	id, err := st.SaveFree(freeSeries(t), 42)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	table, err := st.LoadTable(id)
	if err != nil {
		t.Fatalf("load table failed: %v", err)
	}

	path := filepath.Join(tmpDir, "out.json")
	if err := ExportJSON(path, meta, table); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if data.ID != id || len(data.Rows) != meta.Rows {
		t.Errorf("exported id=%s rows=%d, want %s/%d", data.ID, len(data.Rows), id, meta.Rows)
	}
}
