// Command graphlapse-tui plays a synthetic graph timelapse in the terminal:
// each frame the graph churns, the engine computes a layout, and the node
// targets are projected onto an ASCII canvas colored by community.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/graphgen"
	"github.com/graphlapse/graphlapse/pkg/hashutil"
	"github.com/graphlapse/graphlapse/pkg/placement"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(1)

	canvasStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1).
			MarginLeft(1)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(1)

	communityColors = []string{
		"#FF5F87", "#5FAFFF", "#5FFF87", "#FFAF5F",
		"#AF87FF", "#FFFF5F", "#5FFFFF", "#FF87D7",
	}
)

type keyMap struct {
	PlayPause key.Binding
	Step      key.Binding
	Strategy  key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Step, k.Strategy, k.Faster, k.Slower, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	PlayPause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "play/pause"),
	),
	Step: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n", "step"),
	),
	Strategy: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "switch strategy"),
	),
	Faster: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "faster"),
	),
	Slower: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "slower"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type tickMsg time.Time

type model struct {
	eng      *engine.Engine
	gen      *graphgen.ChurnGenerator
	help     help.Model
	keys     keyMap
	strategy string
	state    []byte
	frame    int
	output   *engine.Output
	playing  bool
	interval time.Duration
	width    int
	height   int
	err      error
}

func newModel(nodes int, churn float64, seed uint64) model {
	return model{
		eng:      engine.New(nil),
		gen:      graphgen.NewChurnGenerator(seed, nodes, churn),
		help:     help.New(),
		keys:     keys,
		strategy: placement.DefaultStrategy,
		playing:  true,
		interval: 400 * time.Millisecond,
		width:    100,
		height:   30,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.computeNext(), m.tick())
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type frameMsg struct {
	output *engine.Output
	err    error
}

func (m model) computeNext() tea.Cmd {
	nodeIDs, adjacency := m.gen.Frame()
	input := engine.Input{
		NodeIDs:       nodeIDs,
		Adjacency:     adjacency,
		PreviousState: m.state,
		Strategy:      m.strategy,
	}
	eng := m.eng
	return func() tea.Msg {
		out, err := eng.ComputeFrame(input)
		return frameMsg{output: out, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.output = msg.output
		m.state = msg.output.Metadata.State
		m.frame++
		return m, nil

	case tickMsg:
		if !m.playing {
			return m, m.tick()
		}
		return m, tea.Batch(m.computeNext(), m.tick())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.PlayPause):
			m.playing = !m.playing
			return m, nil
		case key.Matches(msg, m.keys.Step):
			if !m.playing {
				return m, m.computeNext()
			}
			return m, nil
		case key.Matches(msg, m.keys.Strategy):
			m.strategy = nextStrategy(m.strategy)
			// A strategy switch restarts the timelapse cold.
			m.state = nil
			m.frame = 0
			return m, m.computeNext()
		case key.Matches(msg, m.keys.Faster):
			if m.interval > 100*time.Millisecond {
				m.interval -= 100 * time.Millisecond
			}
			return m, nil
		case key.Matches(msg, m.keys.Slower):
			if m.interval < 2*time.Second {
				m.interval += 100 * time.Millisecond
			}
			return m, nil
		}
	}
	return m, nil
}

func nextStrategy(current string) string {
	names := placement.Names()
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return placement.DefaultStrategy
}

func (m model) View() string {
	if m.output == nil {
		return "\n  computing first frame...\n"
	}

	canvasWidth := m.width - 30
	if canvasWidth < 20 {
		canvasWidth = 20
	}
	canvasHeight := m.height - 6
	if canvasHeight < 10 {
		canvasHeight = 10
	}

	canvas := renderCanvas(m.output, canvasWidth, canvasHeight)
	stats := m.renderStats()

	status := "▶ playing"
	if !m.playing {
		status = pausedStyle.Render("⏸ paused")
	}

	header := titleStyle.Render(fmt.Sprintf("Graphlapse Timelapse — %s", status))
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(canvas),
		statsStyle.Render(stats),
	)
	return header + "\n" + body + "\n" + helpStyle.Render(m.help.View(m.keys))
}

func (m model) renderStats() string {
	meta := m.output.Metadata
	var b strings.Builder
	fmt.Fprintf(&b, "frame       %d\n", m.frame)
	fmt.Fprintf(&b, "strategy    %s\n", meta.Strategy)
	fmt.Fprintf(&b, "nodes       %d\n", meta.NodeCount)
	fmt.Fprintf(&b, "components  %d\n", meta.Components)
	fmt.Fprintf(&b, "communities %d\n", meta.Communities)
	fmt.Fprintf(&b, "compute     %v\n", meta.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "speed       %v", m.interval)
	return b.String()
}

// renderCanvas projects node targets onto a character grid. Each node's rune
// is colored by its community so group drift stays visible across frames.
func renderCanvas(out *engine.Output, width, height int) string {
	targets := out.Layout.NodeTargets
	if len(targets) == 0 {
		return "(empty graph)"
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, t := range targets {
		minX = math.Min(minX, t.TargetX)
		maxX = math.Max(maxX, t.TargetX)
		minY = math.Min(minY, t.TargetY)
		maxY = math.Max(maxY, t.TargetY)
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}

	for _, t := range targets {
		x := int((t.TargetX - minX) / spanX * float64(width-1))
		y := int((t.TargetY - minY) / spanY * float64(height-1))
		color := communityColors[hashutil.Sum32(t.CommunityID)%uint32(len(communityColors))]
		grid[y][x] = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
	}

	rows := make([]string, height)
	for y := range grid {
		rows[y] = strings.Join(grid[y], "")
	}
	return strings.Join(rows, "\n")
}

func main() {
	nodes := flag.Int("nodes", 120, "Number of nodes per frame")
	churn := flag.Float64("churn", 0.08, "Fraction of nodes replaced each frame")
	seed := flag.Uint64("seed", 7, "Graph generator seed")
	flag.Parse()

	p := tea.NewProgram(newModel(*nodes, *churn, *seed), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
