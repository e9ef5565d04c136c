// Package export renders stored datasets as standalone SVG documents, for
// reports where the terminal plots are not enough.
package export

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadSeries = errors.New("export: invalid series")

// Series is one plotted curve: y over x, with optional per-point
// uncertainties drawn as vertical error bars.
type Series struct {
	X     []float64
	Y     []float64
	Sigma []float64 // empty, or one entry per point
}

func (s Series) validate() error {
	if len(s.X) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrBadSeries, len(s.X))
	}
	if len(s.Y) != len(s.X) {
		return fmt.Errorf("%w: %d x values for %d y values", ErrBadSeries, len(s.X), len(s.Y))
	}
	if len(s.Sigma) != 0 && len(s.Sigma) != len(s.X) {
		return fmt.Errorf("%w: %d sigma values for %d points", ErrBadSeries, len(s.Sigma), len(s.X))
	}
	return nil
}

// SVG renders the series as a dark-background line plot of the given pixel
// size. Bounds are autoscaled to the data including the error bars, with 10%
// padding on each side.
func SVG(s Series, width, height int, stroke string) (string, error) {
	if err := s.validate(); err != nil {
		return "", err
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("%w: size %dx%d", ErrBadSeries, width, height)
	}

	minX, maxX := s.X[0], s.X[0]
	minY, maxY := s.Y[0], s.Y[0]
	for i := range s.X {
		lo, hi := s.Y[i], s.Y[i]
		if len(s.Sigma) != 0 {
			lo -= s.Sigma[i]
			hi += s.Sigma[i]
		}
		if s.X[i] < minX {
			minX = s.X[i]
		}
		if s.X[i] > maxX {
			maxX = s.X[i]
		}
		if lo < minY {
			minY = lo
		}
		if hi > maxY {
			maxY = hi
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	px := func(x float64) float64 { return (x - minX) / rangeX * float64(width) }
	py := func(y float64) float64 { return float64(height) - (y-minY)/rangeY*float64(height) }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	if len(s.Sigma) != 0 {
		sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="1" opacity="0.5">
`, stroke))
		for i := range s.X {
			if s.Sigma[i] <= 0 {
				continue
			}
			x := px(s.X[i])
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x, py(s.Y[i]-s.Sigma[i]), x, py(s.Y[i]+s.Sigma[i])))
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i := range s.X {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(s.X[i]), py(s.Y[i])))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(s.X[i]), py(s.Y[i])))
		}
	}
	sb.WriteString(`"/>
</svg>`)

	return sb.String(), nil
}
