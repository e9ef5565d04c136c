package dataset

import "github.com/phys-praktikum/fplab/internal/oscillator"

// Column names of the free and driven CSV layouts.
var (
	FreeColumns   = []string{"time", "position", "uncertainty"}
	DrivenColumns = []string{"frequency", "amplitude", "amplitude_uncertainty", "phase", "phase_uncertainty"}
)

// FreeSample is one noisy reading of the free damped displacement.
type FreeSample struct {
	T     float64
	X     float64
	Sigma float64
}

// DrivenSample is one noisy reading of the driven steady-state response.
type DrivenSample struct {
	Omega      float64
	Amp        float64
	SigmaAmp   float64
	Phase      float64
	SigmaPhase float64
}

// FreeSeries is a generated free-decay dataset together with the oscillator
// and sampling settings that produced it.
type FreeSeries struct {
	Osc     oscillator.Oscillator
	Cfg     FreeConfig
	Samples []FreeSample
}

// DrivenSeries is a generated frequency-sweep dataset together with the
// oscillator and sampling settings that produced it.
type DrivenSeries struct {
	Osc     oscillator.Oscillator
	Cfg     DrivenConfig
	Samples []DrivenSample
}

// Table is the uniform numeric payload used for persistence and plotting.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Column returns the values of the named column.
func (t Table) Column(name string) ([]float64, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

func (s *FreeSeries) Table() Table {
	rows := make([][]float64, len(s.Samples))
	for i, p := range s.Samples {
		rows[i] = []float64{p.T, p.X, p.Sigma}
	}
	return Table{Columns: FreeColumns, Rows: rows}
}

func (s *DrivenSeries) Table() Table {
	rows := make([][]float64, len(s.Samples))
	for i, p := range s.Samples {
		rows[i] = []float64{p.Omega, p.Amp, p.SigmaAmp, p.Phase, p.SigmaPhase}
	}
	return Table{Columns: DrivenColumns, Rows: rows}
}
