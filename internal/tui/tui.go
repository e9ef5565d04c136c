// Package tui is an interactive oscillator explorer: tune the parameters,
// watch the free decay trace or sweep the driven response, live in the
// terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/phys-praktikum/fplab/internal/oscillator"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var modeInfo = map[string]string{
	"free":   "damped decay trace",
	"driven": "resonance sweep",
}

type state int

const (
	stateMenu state = iota
	stateParams
	stateRun
)

type model struct {
	state    state
	cursor   int
	modes    []string
	selected string

	osc         oscillator.Oscillator
	duration    float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string
	errMsg      string

	running   bool
	paused    bool
	simTime   float64
	sweepW    float64
	dt        float64
	speed     float64
	trace     []float64
	history   []float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

// NewApp builds the explorer seeded with osc.
func NewApp(osc oscillator.Oscillator) *model {
	return &model{
		state:      stateMenu,
		modes:      []string{"free", "driven"},
		osc:        osc,
		duration:   10.0,
		paramNames: []string{"a0", "omega0", "delta", "phi", "drive", "duration"},
		dt:         0.01,
		speed:      1.0,
		history:    make([]float64, 0, 60),
		width:      80,
		height:     24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateRun {
			return m, nil
		}
		if m.running && !m.paused {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				dt := now.Sub(m.lastFrame).Seconds()
				if dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		if m.running && m.state == stateRun {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateParams:
		return m.paramsKey(msg)
	case stateRun:
		return m.runKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.modes)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.modes[m.cursor]
		m.state = stateParams
		m.paramCursor = 0
		m.errMsg = ""
	}
	return m, nil
}

func (m model) paramsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			fmt.Sscanf(m.editBuf, "%f", &val)
			m.setParam(m.paramNames[m.paramCursor], val)
			m.editing = false
			m.editBuf = ""
		case "escape":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "escape":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fmt.Sprintf("%.2f", m.getParam(m.paramNames[m.paramCursor]))
	case "s":
		if err := m.validate(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.start()
		m.state = stateRun
		return m, tea.Batch(tea.ClearScreen, tick())
	case "left", "h":
		name := m.paramNames[m.paramCursor]
		m.setParam(name, m.getParam(name)-0.1)
	case "right", "l":
		name := m.paramNames[m.paramCursor]
		m.setParam(name, m.getParam(name)+0.1)
	}
	return m, nil
}

func (m model) runKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.ClearScreen
	case "c":
		m.running = false
		m.state = stateParams
		m.reset()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m model) getParam(name string) float64 {
	if name == "duration" {
		return m.duration
	}
	return m.osc.GetParams()[name]
}

func (m *model) setParam(name string, val float64) {
	if name == "duration" {
		m.duration = val
		return
	}
	m.osc.SetParam(name, val)
	m.errMsg = ""
}

func (m model) validate() error {
	if err := m.osc.Validate(); err != nil {
		return err
	}
	if m.selected == "driven" && m.osc.Delta <= 0 {
		return fmt.Errorf("driven sweep needs positive damping")
	}
	if m.duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

func (m *model) start() {
	m.trace = m.trace[:0]
	m.history = m.history[:0]
	m.simTime = 0
	m.sweepW = m.sweepMin()
	m.speed = 1.0
	m.lastFrame = time.Time{}
	m.errMsg = ""
	m.running = true
	m.paused = false
}

func (m *model) reset() {
	m.trace = nil
	m.history = nil
	m.simTime = 0
	m.sweepW = 0
}

// The sweep covers zero to twice the natural frequency, which brackets the
// resonance for any damping.
func (m model) sweepMin() float64 { return 0.0 }
func (m model) sweepMax() float64 { return 2 * m.osc.Omega0 }

func (m *model) step() {
	switch m.selected {
	case "driven":
		if m.sweepW >= m.sweepMax() {
			m.paused = true
			return
		}
		m.sweepW += (m.sweepMax() - m.sweepMin()) / 400
		m.trace = append(m.trace, m.osc.ResponseAmplitude(m.sweepW))
		m.record(m.osc.PhaseShift(m.sweepW))
	default:
		if m.simTime >= m.duration {
			m.paused = true
			return
		}
		m.simTime += m.dt
		x := m.osc.Displacement(m.simTime)
		m.trace = append(m.trace, x)
		m.record(x)
	}
}

func (m *model) record(v float64) {
	m.history = append(m.history, v)
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateParams:
		return m.viewParams()
	case stateRun:
		return m.viewRun()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("f p l a b") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.modes {
		desc := modeInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewParams() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(modeInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%8.3f", m.getParam(name))
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString("      " + red.Render(m.errMsg) + "\n")
	}
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewRun() string {
	cw := m.width - 6
	ch := m.height - 12
	if cw < 50 {
		cw = 50
	}
	if ch < 12 {
		ch = 12
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	if m.selected == "driven" {
		m.drawSweep(canvas, cw, ch)
	} else {
		m.drawDecay(canvas, cw, ch)
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText))

	progress := m.progress()
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(m.progressLabel()), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	b.WriteString("\n" + m.statusLine() + "\n")

	if len(m.history) > 1 {
		label := "x"
		if m.selected == "driven" {
			label = "φ"
		}
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render(label), cyan.Render(sparkline(m.history, 24))))
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r reset  c params  q quit") + "\n")

	return b.String()
}

func (m model) progress() float64 {
	var p float64
	if m.selected == "driven" {
		span := m.sweepMax() - m.sweepMin()
		if span > 0 {
			p = (m.sweepW - m.sweepMin()) / span
		}
	} else if m.duration > 0 {
		p = m.simTime / m.duration
	}
	if p > 1 {
		p = 1
	}
	return p
}

func (m model) progressLabel() string {
	if m.selected == "driven" {
		return fmt.Sprintf("ω=%.2f/%.2f", m.sweepW, m.sweepMax())
	}
	return fmt.Sprintf("%.1fs/%.0fs", m.simTime, m.duration)
}

func (m model) statusLine() string {
	if m.selected == "driven" {
		return "   " +
			dim.Render("ω=") + white.Render(fmt.Sprintf("%.2f", m.sweepW)) + "  " +
			dim.Render("A=") + white.Render(fmt.Sprintf("%.4f", m.osc.ResponseAmplitude(m.sweepW))) + "  " +
			dim.Render("φ=") + white.Render(fmt.Sprintf("%.3f", m.osc.PhaseShift(m.sweepW)))
	}
	return "   " +
		dim.Render("t=") + white.Render(fmt.Sprintf("%.2f", m.simTime)) + "  " +
		dim.Render("x=") + white.Render(fmt.Sprintf("%.4f", m.osc.Displacement(m.simTime))) + "  " +
		dim.Render("env=") + white.Render(fmt.Sprintf("%.4f", m.osc.Envelope(m.simTime))) + "  " +
		dim.Render("Q=") + white.Render(fmt.Sprintf("%.1f", m.osc.Quality()))
}

// drawDecay plots the displacement trace with its decay envelope, scrolling
// left once the trace outgrows the canvas.
func (m model) drawDecay(canvas [][]rune, cw, ch int) {
	mid := ch / 2
	for x := 0; x < cw; x++ {
		canvas[mid][x] = '·'
	}

	scale := math.Abs(m.osc.A0)
	if scale == 0 {
		scale = 1
	}
	half := float64(ch/2 - 1)

	start := 0
	if len(m.trace) > cw {
		start = len(m.trace) - cw
	}
	for i := start; i < len(m.trace); i++ {
		col := i - start
		t := float64(i+1) * m.dt

		env := m.osc.Envelope(t) / scale
		setCell(canvas, cw, ch, col, mid-int(env*half), '.')
		setCell(canvas, cw, ch, col, mid+int(env*half), '.')

		y := mid - int(m.trace[i]/scale*half)
		setCell(canvas, cw, ch, col, y, 'o')
	}
}

// drawSweep plots the response amplitude over the swept frequency range with
// a marker on the current frequency.
func (m model) drawSweep(canvas [][]rune, cw, ch int) {
	for x := 0; x < cw; x++ {
		canvas[ch-1][x] = '·'
	}

	peak := m.osc.ResponseAmplitude(m.osc.ResonanceOmega())
	if peak <= 0 {
		return
	}

	for i, a := range m.trace {
		col := i * cw / 400
		y := ch - 2 - int(a/peak*float64(ch-3))
		setCell(canvas, cw, ch, col, y, 'o')
	}

	span := m.sweepMax() - m.sweepMin()
	if span > 0 {
		col := int((m.sweepW - m.sweepMin()) / span * float64(cw-1))
		if col > cw-1 {
			col = cw - 1
		}
		for y := 0; y < ch-1; y++ {
			if canvas[y][col] == ' ' {
				canvas[y][col] = '|'
			}
		}
	}
}

func setCell(canvas [][]rune, cw, ch, x, y int, c rune) {
	if x >= 0 && x < cw && y >= 0 && y < ch {
		canvas[y][x] = c
	}
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}
