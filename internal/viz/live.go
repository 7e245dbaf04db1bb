package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/metrics"
	"github.com/san-kum/cylsim/internal/sim"
)

const (
	canvasWidth     = 72
	canvasHeight    = 24
	historyCapacity = 300
	maxStepsPerTick = 256
)

type Options struct {
	Preset        string
	StepsPerFrame int
	FPS           int
	Theme         string
}

type TickMsg time.Time

// Model renders a running simulation: particles and the container
// wireframe on a braille canvas, next to live metrics and tunable params.
type Model struct {
	sim    *sim.Simulation
	origin *sim.Simulation

	preset        string
	fps           int
	stepsPerFrame int
	running       bool
	showHelp      bool
	status        string

	canvas *Canvas
	camera *Camera
	edges  []Edge

	metrics       []dynamo.Metric
	values        map[string]float64
	energyHistory []float64
	contacts      dynamo.Contacts

	paramKeys []string
	selected  int

	theme  Theme
	styles Styles
}

// NewModel wraps s, which must not have been stepped by anyone else. The
// live view keeps a pristine copy for reset.
func NewModel(s *sim.Simulation, opts Options) (Model, error) {
	origin, err := s.Retune(s.Params())
	if err != nil {
		return Model{}, err
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 10
	}

	params := s.Params()
	keys := make([]string, 0, 4)
	for k := range params.GetParams() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	theme := GetTheme(opts.Theme)
	return Model{
		sim:           s,
		origin:        origin,
		preset:        opts.Preset,
		fps:           opts.FPS,
		stepsPerFrame: min(opts.StepsPerFrame, maxStepsPerTick),
		running:       true,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		camera:        NewCamera(opts.FPS, SceneExtent(params)),
		edges:         CylinderWireframe(params.CylinderRadius, params.CylinderHeight, 32),
		metrics:       metrics.Default(params),
		values:        make(map[string]float64),
		energyHistory: make([]float64, 0, historyCapacity),
		paramKeys:     keys,
		theme:         theme,
		styles:        NewStyles(theme),
	}, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Simulation returns the simulation currently shown. Retuning replaces it.
func (m Model) Simulation() *sim.Simulation { return m.sim }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerFrame)
		}
		m.camera.Update()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "n":
		if !m.running {
			m.advance(1)
		}
	case "r":
		m.reset()
	case "tab":
		if len(m.paramKeys) > 0 {
			m.selected = (m.selected + 1) % len(m.paramKeys)
		}
	case "up", "k":
		m.adjustParam(1.05)
	case "down", "j":
		m.adjustParam(0.95)
	case "left", "h":
		m.camera.Orbit(-0.15, 0)
	case "right", "l":
		m.camera.Orbit(0.15, 0)
	case "w":
		m.camera.Orbit(0, 0.1)
	case "s":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomBy(1.2)
	case "-", "_":
		m.camera.ZoomBy(1 / 1.2)
	case ".":
		m.stepsPerFrame = min(m.stepsPerFrame*2, maxStepsPerTick)
	case ",":
		m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = NewStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// advance runs n steps and feeds the resulting frame to the metrics.
func (m *Model) advance(n int) {
	var acc dynamo.Contacts
	for i := 0; i < n; i++ {
		m.sim.Step()
		c := m.sim.LastContacts()
		acc.Wall += c.Wall
		acc.Pair += c.Pair
	}
	m.contacts = acc

	frame := m.sim.Frame()
	frame.Contacts = acc
	for _, mt := range m.metrics {
		mt.Observe(frame)
		m.values[mt.Name()] = mt.Value()
	}

	m.energyHistory = append(m.energyHistory, m.values["kinetic_energy"])
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	params := m.sim.Params()
	val := params.GetParams()[key]
	next := val * factor
	if val == 0 {
		next = factor - 1
	}

	tuned, err := params.WithParam(key, next)
	if err != nil {
		m.status = err.Error()
		return
	}
	s, err := m.sim.Retune(tuned)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.sim = s
	m.status = ""
}

// reset restores the initial particles and params.
func (m *Model) reset() {
	s, err := m.origin.Retune(m.origin.Params())
	if err != nil {
		m.status = err.Error()
		return
	}
	m.sim = s
	m.energyHistory = m.energyHistory[:0]
	m.contacts = dynamo.Contacts{}
	for _, mt := range m.metrics {
		mt.Reset()
	}
	m.values = make(map[string]float64)
	m.status = ""
}

func (m *Model) draw() {
	m.camera.DrawScene(m.canvas, m.edges, m.sim.State().Positions)
}

func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.Canvas.Render(m.canvas.String())

	var s strings.Builder
	title := "CYLINDER"
	if m.preset != "" {
		title += " · " + strings.ToUpper(m.preset)
	}
	s.WriteString(st.Header.Render(title) + "\n")

	if m.running {
		s.WriteString(st.Running.Render("RUNNING"))
	} else {
		s.WriteString(st.Paused.Render("PAUSED"))
	}
	s.WriteString(fmt.Sprintf("  %d steps/frame\n", m.stepsPerFrame))
	if m.status != "" {
		s.WriteString(st.Low.Render(m.status) + "\n")
	}
	s.WriteString("\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4f", m.sim.Time()))
	row("Steps", fmt.Sprintf("%d", m.sim.Steps()))
	row("Particles", fmt.Sprintf("%d", m.sim.NumParticles()))
	row("Integrator", m.sim.Integrator().Name())
	row("Kinetic E", fmt.Sprintf("%.4g", m.values["kinetic_energy"]))
	row("Max speed", fmt.Sprintf("%.4g", m.values["max_speed"]))
	row("Mean height", fmt.Sprintf("%.3f", m.values["mean_height"]))
	row("Contacts", fmt.Sprintf("wall %d  pair %d", m.contacts.Wall, m.contacts.Pair))
	containment := 1.0
	if v, ok := m.values["containment"]; ok {
		containment = v
	}
	s.WriteString(st.Label.Render("Contained") + st.ProgressBar(containment, 16) + fmt.Sprintf(" %.0f%%\n", containment*100))

	s.WriteString("\nPARAMETERS\n")
	current := m.sim.Params().GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-12s %.4g", k, current[k])
		if i == m.selected {
			s.WriteString(st.ActiveParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.Label.Render(line) + "\n")
		}
	}
	s.WriteString(st.Help.Render("SP:Pause R:Reset Q:Quit ?:Help\nTab ↑↓:Tune ←→ W S:Orbit +-:Zoom"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause / resume
  N        single step while paused
  R        reset to the initial particles
  Tab      select parameter
  Up/K     increase parameter 5%
  Down/J   decrease parameter 5%
  Left/H   orbit left      Right/L  orbit right
  W / S    tilt up / down
  + / -    zoom
  . / ,    more / fewer steps per frame
  T        cycle theme
  ?        toggle this help
  Q        quit
`

// RunLive runs the model full screen until the user quits.
func RunLive(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
