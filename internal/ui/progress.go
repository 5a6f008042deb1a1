// Package ui draws the interactive progress view of `overrider build`.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	bp "overrider/internal/buildpipeline"
)

// stageInfo: подпись активной стадии и вклад файла в общий прогресс.
var stageInfo = map[bp.Stage]struct {
	verb   string
	weight float64
}{
	bp.StageScan:    {"scanning", 0.2},
	bp.StageRewrite: {"rewriting", 0.6},
	bp.StageWrite:   {"writing", 0.9},
}

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	styleBusy  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	statusLook = map[string]lipgloss.Style{
		"done":      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"unchanged": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

const statusWidth = 12

type template struct {
	path   string
	status string
	stage  bp.Stage
	// settled templates no longer move the bar, except into error
	settled bool
}

type progressModel struct {
	title      string
	events     <-chan bp.Event
	spin       spinner.Model
	bar        progress.Model
	items      []template
	byPath     map[string]int
	stageLabel string
	failed     bool
	done       bool
	width      int
}

type (
	eventMsg bp.Event
	doneMsg  struct{}
)

// NewProgressModel lists files up front; templates that show up only in
// events are appended as they arrive.
func NewProgressModel(title string, files []string, events <-chan bp.Event) tea.Model {
	m := &progressModel{
		title:  title,
		events: events,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleBusy)),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		byPath: make(map[string]int, len(files)),
		width:  80,
	}
	for _, f := range files {
		m.row(f)
	}
	return m
}

func (m *progressModel) row(path string) *template {
	i, ok := m.byPath[path]
	if !ok {
		i = len(m.items)
		m.byPath[path] = i
		m.items = append(m.items, template{path: path, status: string(bp.StatusQueued)})
	}
	return &m.items[i]
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(bp.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// Ctrl-C только закрывает вид, сборка доигрывает сама
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) applyEvent(ev bp.Event) tea.Cmd {
	if ev.Status == bp.StatusError {
		m.failed = true
	}
	if ev.File == "" {
		if ev.Status == bp.StatusWorking {
			m.stageLabel = stageInfo[ev.Stage].verb
		}
		return nil
	}

	t := m.row(ev.File)
	switch {
	case t.settled && ev.Status != bp.StatusError:
		return nil
	case ev.Status == bp.StatusError:
		t.status, t.settled = "error", true
	case ev.Status == bp.StatusWorking:
		t.status, t.stage = stageInfo[ev.Stage].verb, ev.Stage
	case ev.Stage == bp.StageWrite && (ev.Status == bp.StatusDone || ev.Status == bp.StatusSkipped):
		t.status, t.stage, t.settled = string(ev.Status), ev.Stage, true
	case ev.Status == bp.StatusQueued:
		t.status = string(bp.StatusQueued)
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.items {
		if t.settled {
			sum++
			continue
		}
		sum += stageInfo[t.stage].weight
	}
	return sum / float64(len(m.items))
}

func (m *progressModel) View() string {
	header := m.title
	if m.stageLabel != "" {
		header += " (" + m.stageLabel + ")"
	}
	switch {
	case m.done && m.failed:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spin.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(header) + "\n\n")
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, t := range m.items {
		look, ok := statusLook[t.status]
		if !ok {
			look = styleBusy
		}
		fmt.Fprintf(&b, "  %s %s\n", look.Render(fmt.Sprintf("%*s", statusWidth, t.status)), truncate(t.path, nameWidth))
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	return b.String() + "\n"
}

func truncate(s string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(s) <= width:
		return s
	case width <= 3:
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width-3, "...")
}
