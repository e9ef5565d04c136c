package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/phys-praktikum/fplab/internal/analysis"
	"github.com/phys-praktikum/fplab/internal/config"
	"github.com/phys-praktikum/fplab/internal/dataset"
	"github.com/phys-praktikum/fplab/internal/ensemble"
	"github.com/phys-praktikum/fplab/internal/export"
	"github.com/phys-praktikum/fplab/internal/fit"
	"github.com/phys-praktikum/fplab/internal/formula"
	"github.com/phys-praktikum/fplab/internal/ode"
	"github.com/phys-praktikum/fplab/internal/oscillator"
	"github.com/phys-praktikum/fplab/internal/propagate"
	"github.com/phys-praktikum/fplab/internal/store"
	"github.com/phys-praktikum/fplab/internal/symbolic"
	"github.com/phys-praktikum/fplab/internal/tui"
)

var (
	dataDir string

	// oscillator parameters
	a0     float64
	omega0 float64
	delta  float64
	phi    float64
	drive  float64

	// free decay sampling
	dt       float64
	duration float64
	noise    float64

	// frequency sweep sampling
	omegaMin   float64
	omegaMax   float64
	sweepSteps int
	noiseAmp   float64
	relAmp     bool
	noisePhase float64

	seed       int64
	configFile string
	preset     string

	// propagation inputs
	inputs      []string
	corrPairs   []string
	showFormula bool

	// monte carlo
	mcRuns int
	mcSeed int64

	// fitting
	fitDegree int
	xColumn   string
	yColumn   string
	sigmaCol  string

	// numerical cross-check
	checkOmega float64

	// svg rendering
	svgWidth  int
	svgHeight int
	svgStroke string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fplab",
		Short: "oscillator datasets and gaussian error propagation lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive explorer when no command given
			p := tea.NewProgram(tui.NewApp(oscillator.New()), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fplab", "data directory")

	genCmd := &cobra.Command{
		Use:   "gen [free|driven]",
		Short: "generate a dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  generateDataset,
	}
	oscillatorFlags(genCmd)
	genCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sample spacing (free)")
	genCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "time span (free)")
	genCmd.Flags().Float64Var(&noise, "noise", config.DefaultNoise, "position noise sigma (free)")
	genCmd.Flags().Float64Var(&omegaMin, "wmin", config.DefaultOmegaMin, "sweep start frequency (driven)")
	genCmd.Flags().Float64Var(&omegaMax, "wmax", config.DefaultOmegaMax, "sweep end frequency (driven)")
	genCmd.Flags().IntVar(&sweepSteps, "steps", config.DefaultSteps, "sweep grid points (driven)")
	genCmd.Flags().Float64Var(&noiseAmp, "noise-amp", config.DefaultNoise, "amplitude noise sigma (driven)")
	genCmd.Flags().BoolVar(&relAmp, "rel-amp", false, "amplitude noise relative to local amplitude")
	genCmd.Flags().Float64Var(&noisePhase, "noise-phase", 0.0, "phase noise sigma (driven)")
	genCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	genCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	genCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list datasets",
		RunE:  listDatasets,
	}

	showCmd := &cobra.Command{
		Use:   "show [dataset_id]",
		Short: "show dataset metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showDataset,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [dataset_id]",
		Short: "plot dataset columns",
		Args:  cobra.ExactArgs(1),
		RunE:  plotDataset,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [dataset_id]",
		Short: "recover frequency and damping from a free dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeDataset,
	}

	fitCmd := &cobra.Command{
		Use:   "fit [dataset_id]",
		Short: "weighted polynomial fit of dataset columns",
		Args:  cobra.ExactArgs(1),
		RunE:  fitDataset,
	}
	fitCmd.Flags().IntVar(&fitDegree, "degree", 1, "polynomial degree")
	fitCmd.Flags().StringVar(&xColumn, "x", "", "abscissa column (default per dataset kind)")
	fitCmd.Flags().StringVar(&yColumn, "y", "", "ordinate column (default per dataset kind)")
	fitCmd.Flags().StringVar(&sigmaCol, "sigma", "", "uncertainty column, or 'none' for unweighted")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [dataset_id]",
		Short: "export dataset to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVDataset,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [dataset_id]",
		Short: "export dataset to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONDataset,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [dataset_id]",
		Short: "render dataset columns as an SVG plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVGDataset,
	}
	exportSVGCmd.Flags().StringVar(&xColumn, "x", "", "abscissa column (default per dataset kind)")
	exportSVGCmd.Flags().StringVar(&yColumn, "y", "", "ordinate column (default per dataset kind)")
	exportSVGCmd.Flags().StringVar(&sigmaCol, "sigma", "", "uncertainty column, or 'none' to omit error bars")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height in pixels")
	exportSVGCmd.Flags().StringVar(&svgStroke, "stroke", "#00ff00", "stroke color")

	propagateCmd := &cobra.Command{
		Use:   "propagate [formula]",
		Short: "propagate measurement uncertainties through a formula",
		Args:  cobra.ExactArgs(1),
		RunE:  runPropagate,
	}
	propagateCmd.Flags().StringArrayVar(&inputs, "in", nil, "measurement name=value:sigma (repeatable)")
	propagateCmd.Flags().StringArrayVar(&corrPairs, "corr", nil, "correlation a,b=rho (repeatable)")
	propagateCmd.Flags().BoolVar(&showFormula, "show-formula", false, "print the symbolic uncertainty formula")

	transformCmd := &cobra.Command{
		Use:   "transform [formula]",
		Short: "propagate a covariance matrix through a coordinate map",
		Args:  cobra.ExactArgs(1),
		RunE:  runTransform,
	}
	transformCmd.Flags().StringArrayVar(&inputs, "in", nil, "measurement name=value:sigma (repeatable)")
	transformCmd.Flags().StringArrayVar(&corrPairs, "corr", nil, "correlation a,b=rho (repeatable)")

	mcCmd := &cobra.Command{
		Use:   "mc [formula]",
		Short: "monte carlo check of a propagated uncertainty",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().StringArrayVar(&inputs, "in", nil, "measurement name=value:sigma (repeatable)")
	mcCmd.Flags().StringArrayVar(&corrPairs, "corr", nil, "correlation a,b=rho (repeatable)")
	mcCmd.Flags().IntVar(&mcRuns, "runs", 10000, "number of draws")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 1, "seed of the first draw")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "compare closed-form solutions against an rk4 integration",
		RunE:  runCrossCheck,
	}
	oscillatorFlags(checkCmd)
	checkCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "integration step")
	checkCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "free decay span")
	checkCmd.Flags().Float64Var(&checkOmega, "omega", 0.0, "drive frequency (default 0.8*omega0)")

	formulasCmd := &cobra.Command{
		Use:   "formulas",
		Short: "list registered formulas",
		RunE:  listFormulas,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "list available presets for a dataset kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for kind: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive oscillator explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			osc := oscillator.Oscillator{A0: a0, Omega0: omega0, Delta: delta, Phi: phi, Drive: drive}
			p := tea.NewProgram(tui.NewApp(osc), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
	oscillatorFlags(liveCmd)

	rootCmd.AddCommand(genCmd, listCmd, showCmd, plotCmd, analyzeCmd, fitCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, propagateCmd, transformCmd,
		mcCmd, checkCmd, formulasCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func oscillatorFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&a0, "a0", 1.0, "initial amplitude")
	cmd.Flags().Float64Var(&omega0, "omega0", 2*math.Pi, "undamped angular frequency")
	cmd.Flags().Float64Var(&delta, "delta", 0.3, "damping coefficient")
	cmd.Flags().Float64Var(&phi, "phi", 0.0, "initial phase")
	cmd.Flags().Float64Var(&drive, "drive", 1.0, "driving acceleration amplitude")
}

// applyConfig copies config values into the flag variables. With a non-nil
// cmd, flags the user set explicitly win over the file.
func applyConfig(cfg *config.Config, cmd *cobra.Command) {
	set := func(name string, apply func()) {
		if cmd == nil || !cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("a0", func() { a0 = cfg.Oscillator.A0 })
	set("omega0", func() { omega0 = cfg.Oscillator.Omega0 })
	set("delta", func() { delta = cfg.Oscillator.Delta })
	set("phi", func() { phi = cfg.Oscillator.Phi })
	set("drive", func() { drive = cfg.Oscillator.Drive })
	set("dt", func() { dt = cfg.Free.Dt })
	set("time", func() { duration = cfg.Free.Duration })
	set("noise", func() { noise = cfg.Free.Noise })
	set("wmin", func() { omegaMin = cfg.Driven.OmegaMin })
	set("wmax", func() { omegaMax = cfg.Driven.OmegaMax })
	set("steps", func() { sweepSteps = cfg.Driven.Steps })
	set("noise-amp", func() { noiseAmp = cfg.Driven.NoiseAmp })
	set("rel-amp", func() { relAmp = cfg.Driven.RelAmp })
	set("noise-phase", func() { noisePhase = cfg.Driven.NoisePhase })
	set("seed", func() {
		if cfg.Seed != 0 {
			seed = cfg.Seed
		}
	})
}

func generateDataset(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if kind != "free" && kind != "driven" {
		return fmt.Errorf("unknown dataset kind: %s (want free or driven)", kind)
	}

	// Load preset if specified
	if preset != "" {
		cfg := config.GetPreset(kind, preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(kind))
		}
		applyConfig(cfg, nil)
	}

	// Load config file if specified (CLI flags override config)
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyConfig(cfg, cmd)
	}

	osc := oscillator.Oscillator{A0: a0, Omega0: omega0, Delta: delta, Phi: phi, Drive: drive}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	gen := dataset.NewGenerator(osc, seed)

	var (
		id      string
		samples int
	)
	switch kind {
	case "free":
		series, err := gen.Free(dataset.FreeConfig{Dt: dt, Duration: duration, Sigma: noise})
		if err != nil {
			return err
		}
		id, err = st.SaveFree(series, seed)
		if err != nil {
			return err
		}
		samples = len(series.Samples)
	case "driven":
		series, err := gen.Driven(dataset.DrivenConfig{
			OmegaMin:   omegaMin,
			OmegaMax:   omegaMax,
			Steps:      sweepSteps,
			SigmaAmp:   noiseAmp,
			RelAmp:     relAmp,
			SigmaPhase: noisePhase,
		})
		if err != nil {
			return err
		}
		id, err = st.SaveDriven(series, seed)
		if err != nil {
			return err
		}
		samples = len(series.Samples)
	}

	fmt.Printf("dataset id: %s\n", id)
	fmt.Printf("samples: %d\n", samples)
	fmt.Printf("oscillator: a0=%.3f omega0=%.3f delta=%.3f phi=%.3f drive=%.3f\n",
		osc.A0, osc.Omega0, osc.Delta, osc.Phi, osc.Drive)
	fmt.Printf("seed: %d\n", seed)

	return nil
}

func listDatasets(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	sets, err := st.List()
	if err != nil {
		return err
	}

	if len(sets) == 0 {
		fmt.Println("no datasets found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tROWS\tSEED\tOMEGA0\tDELTA")

	for _, meta := range sets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%.3f\n",
			meta.ID,
			meta.Kind,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Rows,
			meta.Seed,
			meta.Oscillator.Omega0,
			meta.Oscillator.Delta,
		)
	}

	return w.Flush()
}

func showDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotColumn(table dataset.Table, name, caption string) error {
	data, ok := table.Column(name)
	if !ok {
		return fmt.Errorf("dataset has no column %q", name)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
	return nil
}

func plotDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("dataset: %s\n", meta.ID)
	fmt.Printf("kind: %s\n", meta.Kind)
	fmt.Printf("samples: %d\n\n", len(table.Rows))

	if meta.Kind == "driven" {
		if err := plotColumn(table, "amplitude", "response amplitude vs sweep index"); err != nil {
			return err
		}
		return plotColumn(table, "phase", "phase shift vs sweep index")
	}
	return plotColumn(table, "position", "displacement vs sample index")
}

func analyzeDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if meta.Kind != "free" {
		return fmt.Errorf("analyze needs a free dataset, %s is %s", meta.ID, meta.Kind)
	}

	table, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}
	ts, ok := table.Column("time")
	if !ok {
		return fmt.Errorf("dataset has no time column")
	}
	xs, ok := table.Column("position")
	if !ok {
		return fmt.Errorf("dataset has no position column")
	}
	if len(ts) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("analysis: %s\n\n", meta.ID)

	ps := analysis.PowerSpectrum(analysis.NextPow2(xs))
	graph := asciigraph.Plot(ps[:len(ps)/4],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (position)"),
	)
	fmt.Println(graph)
	fmt.Println()

	sampleDt := ts[1] - ts[0]
	omega, err := analysis.DominantFrequency(xs, sampleDt)
	if err != nil {
		return err
	}

	recorded := math.Sqrt(meta.Oscillator.Omega0*meta.Oscillator.Omega0 -
		meta.Oscillator.Delta*meta.Oscillator.Delta)
	fmt.Printf("dominant frequency: %.4f rad/s (%.4f hz)\n", omega, omega/(2*math.Pi))
	fmt.Printf("recorded omega_d:   %.4f rad/s\n", recorded)

	deltaHat, err := analysis.DampingEstimate(ts, xs)
	if err != nil {
		return err
	}
	fmt.Printf("damping estimate:   %.4f\n", deltaHat)
	fmt.Printf("recorded delta:     %.4f\n", meta.Oscillator.Delta)

	return nil
}

func fitDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}

	xName, yName, sName := resolveColumns(meta.Kind)

	xs, ok := table.Column(xName)
	if !ok {
		return fmt.Errorf("dataset has no column %q", xName)
	}
	ys, ok := table.Column(yName)
	if !ok {
		return fmt.Errorf("dataset has no column %q", yName)
	}

	var res *fit.Result
	if sName == "none" {
		res, err = fit.LeastSquares(xs, ys, fit.Polynomial(fitDegree))
	} else {
		sigmas, ok := table.Column(sName)
		if !ok {
			return fmt.Errorf("dataset has no column %q", sName)
		}
		res, err = fit.Weighted(xs, ys, sigmas, fit.Polynomial(fitDegree))
	}
	if err != nil {
		return err
	}

	fmt.Printf("fit: %s ~ poly(%s, degree %d)\n\n", yName, xName, fitDegree)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COEFF\tVALUE\tSIGMA")
	for i, c := range res.Coeffs {
		fmt.Fprintf(w, "c%d\t%.6g\t%.3g\n", i, c, res.Sigma(i))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nchi2: %.4f\n", res.Chi2)
	fmt.Printf("ndf: %d\n", res.NDF)
	fmt.Printf("chi2/ndf: %.4f\n", res.ReducedChi2())

	return nil
}

// resolveColumns resolves the --x/--y/--sigma flags against the per-kind
// defaults: time/position/uncertainty for free datasets,
// frequency/amplitude/amplitude_uncertainty for driven ones.
func resolveColumns(kind string) (x, y, sigma string) {
	x, y, sigma = xColumn, yColumn, sigmaCol
	if x == "" {
		x = "time"
		if kind == "driven" {
			x = "frequency"
		}
	}
	if y == "" {
		y = "position"
		if kind == "driven" {
			y = "amplitude"
		}
	}
	if sigma == "" {
		sigma = "uncertainty"
		if kind == "driven" {
			sigma = "amplitude_uncertainty"
		}
	}
	return x, y, sigma
}

func exportCSVDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	table, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}
	return store.WriteCSV(os.Stdout, table)
}

func exportJSONDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}
	return store.ExportJSONStdout(meta, table)
}

func exportSVGDataset(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}

	xName, yName, sName := resolveColumns(meta.Kind)

	xs, ok := table.Column(xName)
	if !ok {
		return fmt.Errorf("dataset has no column %q", xName)
	}
	ys, ok := table.Column(yName)
	if !ok {
		return fmt.Errorf("dataset has no column %q", yName)
	}
	series := export.Series{X: xs, Y: ys}
	if sName != "none" {
		sigmas, ok := table.Column(sName)
		if !ok {
			return fmt.Errorf("dataset has no column %q", sName)
		}
		series.Sigma = sigmas
	}

	doc, err := export.SVG(series, svgWidth, svgHeight, svgStroke)
	if err != nil {
		return err
	}
	fmt.Println(doc)
	return nil
}

// parseMeasurements turns --in name=value:sigma strings into measurements.
// The sigma part may be omitted for an exact value.
func parseMeasurements(raw []string) ([]propagate.Measurement, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no inputs given (use --in name=value:sigma)")
	}
	ms := make([]propagate.Measurement, 0, len(raw))
	for _, item := range raw {
		name, rest, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid input %q (want name=value:sigma)", item)
		}
		valStr, sigStr, hasSigma := strings.Cut(rest, ":")
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", item, err)
		}
		var sig float64
		if hasSigma {
			sig, err = strconv.ParseFloat(sigStr, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid sigma in %q: %w", item, err)
			}
		}
		ms = append(ms, propagate.Measurement{Name: strings.TrimSpace(name), Value: val, Sigma: sig})
	}
	return ms, nil
}

// covarianceFrom builds the input covariance from the --corr flags. Without
// any correlation pairs it reports correlated=false and callers take the
// uncorrelated path.
func covarianceFrom(ms []propagate.Measurement) (cov *mat.SymDense, correlated bool, err error) {
	if len(corrPairs) == 0 {
		return nil, false, nil
	}

	idx := make(map[string]int, len(ms))
	sigmas := make([]float64, len(ms))
	for i, m := range ms {
		idx[m.Name] = i
		sigmas[i] = m.Sigma
	}

	corr := mat.NewSymDense(len(ms), nil)
	for i := range ms {
		corr.SetSym(i, i, 1)
	}
	for _, pair := range corrPairs {
		names, rhoStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, false, fmt.Errorf("invalid correlation %q (want a,b=rho)", pair)
		}
		first, second, ok := strings.Cut(names, ",")
		if !ok {
			return nil, false, fmt.Errorf("invalid correlation %q (want a,b=rho)", pair)
		}
		i, okI := idx[strings.TrimSpace(first)]
		j, okJ := idx[strings.TrimSpace(second)]
		if !okI || !okJ {
			return nil, false, fmt.Errorf("correlation %q names an unknown variable", pair)
		}
		rho, err := strconv.ParseFloat(rhoStr, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid rho in %q: %w", pair, err)
		}
		corr.SetSym(i, j, rho)
	}

	cov, err = propagate.FromCorrelation(sigmas, corr)
	if err != nil {
		return nil, false, err
	}
	return cov, true, nil
}

func runPropagate(cmd *cobra.Command, args []string) error {
	f, err := formula.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}
	if !f.Scalar() {
		return fmt.Errorf("formula %s yields %d outputs, use transform", f.Name, len(f.Outputs))
	}

	ms, err := parseMeasurements(inputs)
	if err != nil {
		return err
	}
	cov, correlated, err := covarianceFrom(ms)
	if err != nil {
		return err
	}

	var res propagate.Result
	if correlated {
		res, err = propagate.Correlated(f.Outputs[0], propagate.PointsOf(ms), cov)
	} else {
		res, err = propagate.Uncorrelated(f.Outputs[0], ms)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s = %g ± %g\n", f.OutputNames[0], res.Value, res.Sigma)
	if res.Value != 0 {
		fmt.Printf("relative: %.4g%%\n", 100*math.Abs(res.Sigma/res.Value))
	}

	if showFormula {
		fmt.Printf("\nsigma formula:\n  %s\n", propagate.SigmaFormula(f.Outputs[0], f.Vars))
	}

	return nil
}

func runTransform(cmd *cobra.Command, args []string) error {
	f, err := formula.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}

	ms, err := parseMeasurements(inputs)
	if err != nil {
		return err
	}
	cov, correlated, err := covarianceFrom(ms)
	if err != nil {
		return err
	}
	if !correlated {
		cov = propagate.Diagonal(ms)
	}

	u, err := propagate.Transform(f.Outputs, propagate.PointsOf(ms), cov)
	if err != nil {
		return err
	}

	env := make(symbolic.Env, len(ms))
	names := make([]string, len(ms))
	for i, m := range ms {
		env[m.Name] = m.Value
		names[i] = m.Name
	}
	for i, out := range f.Outputs {
		v, err := out.Eval(env)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %g ± %g\n", f.OutputNames[i], v, math.Sqrt(u.At(i, i)))
	}

	jac := mat.NewDense(len(f.Outputs), len(ms), nil)
	for i, out := range f.Outputs {
		for j, name := range names {
			d, err := out.Diff(name).Eval(env)
			if err != nil {
				return err
			}
			jac.Set(i, j, d)
		}
	}

	if err := printMatrix("input covariance", names, names, cov); err != nil {
		return err
	}
	if err := printMatrix("jacobian", f.OutputNames, names, jac); err != nil {
		return err
	}
	return printMatrix("output covariance", f.OutputNames, f.OutputNames, u)
}

// printMatrix writes a labeled matrix as an aligned table.
func printMatrix(title string, rows, cols []string, m mat.Matrix) error {
	fmt.Printf("\n%s:\n", title)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\t%s\n", strings.Join(cols, "\t"))
	for i, name := range rows {
		cells := make([]string, len(cols))
		for j := range cols {
			cells[j] = strconv.FormatFloat(m.At(i, j), 'g', 6, 64)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	f, err := formula.NewRegistry().Get(args[0])
	if err != nil {
		return err
	}
	if !f.Scalar() {
		return fmt.Errorf("formula %s yields %d outputs, use transform", f.Name, len(f.Outputs))
	}

	ms, err := parseMeasurements(inputs)
	if err != nil {
		return err
	}
	cov, correlated, err := covarianceFrom(ms)
	if err != nil {
		return err
	}

	var want propagate.Result
	if correlated {
		want, err = propagate.Correlated(f.Outputs[0], propagate.PointsOf(ms), cov)
	} else {
		want, err = propagate.Uncorrelated(f.Outputs[0], ms)
	}
	if err != nil {
		return err
	}

	runner := ensemble.New(f.Outputs[0], ms, mcRuns, mcSeed)
	if correlated {
		if err := runner.UseCovariance(cov); err != nil {
			return err
		}
	}

	start := time.Now()
	samples, err := runner.Run(context.Background())
	if err != nil {
		return err
	}
	sum := ensemble.Summarize(samples)
	elapsed := time.Since(start)

	fmt.Printf("monte carlo: %d draws in %v\n\n", sum.Runs, elapsed)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tVALUE\tSIGMA")
	fmt.Fprintf(w, "propagated\t%.6g\t%.6g\n", want.Value, want.Sigma)
	fmt.Fprintf(w, "monte carlo\t%.6g\t%.6g\n", sum.Mean, sum.Std)
	if err := w.Flush(); err != nil {
		return err
	}

	if want.Sigma > 0 {
		fmt.Printf("\nsigma deviation: %.2f%%\n", 100*math.Abs(sum.Std-want.Sigma)/want.Sigma)
	}

	return nil
}

func runCrossCheck(cmd *cobra.Command, args []string) error {
	osc := oscillator.Oscillator{A0: a0, Omega0: omega0, Delta: delta, Phi: phi, Drive: drive}
	if err := osc.Validate(); err != nil {
		return err
	}

	// Free decay against the closed form.
	steps := int(duration / dt)
	traj := ode.Integrate(&ode.OscillatorSystem{Osc: osc}, ode.FreeInitialState(osc), 0, dt, steps)

	var worstFree float64
	for i, state := range traj {
		diff := math.Abs(state[0] - osc.Displacement(float64(i)*dt))
		if diff > worstFree {
			worstFree = diff
		}
	}
	fmt.Printf("free decay: max |rk4 - closed form| = %.3g over %d steps\n", worstFree, steps)

	if osc.Delta <= 0 {
		fmt.Println("driven check skipped: needs positive damping")
		return nil
	}

	// Driven steady state against the response curve, once the transient
	// has decayed away.
	w := checkOmega
	if w <= 0 {
		w = 0.8 * osc.Omega0
	}
	settle := 8.0 / osc.Delta
	window := 10 * 2 * math.Pi / w
	total := settle + window
	drivenSteps := int(total / dt)

	sys := &ode.OscillatorSystem{
		Osc:   osc,
		Force: func(t float64) float64 { return osc.Drive * math.Cos(w * t) },
	}
	traj = ode.Integrate(sys, ode.State{0, 0}, 0, dt, drivenSteps)

	amp := osc.ResponseAmplitude(w)
	phase := osc.PhaseShift(w)
	var worstDriven float64
	for i := int(settle / dt); i <= drivenSteps; i++ {
		t := float64(i) * dt
		diff := math.Abs(traj[i][0] - amp*math.Cos(w*t+phase))
		if diff > worstDriven {
			worstDriven = diff
		}
	}
	fmt.Printf("driven steady state at omega=%.3f: max deviation = %.3g (amplitude %.4g, phase %.4f)\n",
		w, worstDriven, amp, phase)

	return nil
}

func listFormulas(cmd *cobra.Command, args []string) error {
	reg := formula.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tARGS\tOUTPUTS\tDESCRIPTION")
	for _, name := range reg.List() {
		f, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			f.Name,
			strings.Join(f.Vars, ","),
			strings.Join(f.OutputNames, ","),
			f.Description,
		)
	}
	return w.Flush()
}
