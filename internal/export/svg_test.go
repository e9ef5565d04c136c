package export

import (
	"errors"
	"strings"
	"testing"
)

func TestSVGContainsPathAndErrorBars(t *testing.T) {
	s := Series{
		X:     []float64{0, 1, 2, 3},
		Y:     []float64{0, 1, 0, -1},
		Sigma: []float64{0.1, 0.1, 0.1, 0.1},
	}

	doc, err := SVG(s, 640, 480, "#00ff00")
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}

	if !strings.HasPrefix(doc, `<?xml version="1.0"`) {
		t.Error("missing xml declaration")
	}
	if !strings.Contains(doc, "<path") {
		t.Error("missing path element")
	}
	if got := strings.Count(doc, "<line"); got != 4 {
		t.Errorf("error bars = %d, want 4", got)
	}
	if !strings.HasSuffix(doc, "</svg>") {
		t.Errorf("document does not end with </svg>")
	}
}

func TestSVGWithoutSigmaHasNoErrorBars(t *testing.T) {
	s := Series{X: []float64{0, 1, 2}, Y: []float64{1, 2, 3}}

	doc, err := SVG(s, 100, 100, "#fff")
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	if strings.Contains(doc, "<line") {
		t.Error("unexpected error bars")
	}
}

func TestSVGRejectsBadSeries(t *testing.T) {
	tests := []struct {
		name string
		s    Series
	}{
		{"too short", Series{X: []float64{1}, Y: []float64{1}}},
		{"length mismatch", Series{X: []float64{1, 2}, Y: []float64{1}}},
		{"sigma mismatch", Series{X: []float64{1, 2}, Y: []float64{1, 2}, Sigma: []float64{0.1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SVG(tt.s, 100, 100, "#fff"); !errors.Is(err, ErrBadSeries) {
				t.Errorf("SVG() error = %v, want ErrBadSeries", err)
			}
		})
	}
}

func TestSVGRejectsBadSize(t *testing.T) {
	s := Series{X: []float64{0, 1}, Y: []float64{0, 1}}
	if _, err := SVG(s, 0, 100, "#fff"); !errors.Is(err, ErrBadSeries) {
		t.Errorf("SVG() error = %v, want ErrBadSeries", err)
	}
}

func TestSVGFlatSeries(t *testing.T) {
	// A constant series must not divide by a zero range.
	s := Series{X: []float64{0, 1, 2}, Y: []float64{5, 5, 5}}
	doc, err := SVG(s, 200, 100, "#fff")
	if err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	if !strings.Contains(doc, "<path") {
		t.Error("missing path element")
	}
}
