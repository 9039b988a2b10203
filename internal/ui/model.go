// ABOUTME: Bubbletea model for the demuxing progress view
// ABOUTME: Defines progress state, driver messages and rendering
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/rawdemux/internal/app"
	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase is the stage the driver is in
type Phase int

const (
	PhaseProbing Phase = iota
	PhaseDemuxing
	PhaseFlushing
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseProbing:
		return "probing"
	case PhaseDemuxing:
		return "demuxing"
	case PhaseFlushing:
		return "flushing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Messages sent by Progress on behalf of the driver
type (
	ProbeMsg struct {
		Input   string
		Streams []media.StreamInfo
	}
	StartMsg struct {
		Selected []app.Selection
	}
	FrameMsg  app.FrameEvent
	FlushMsg  struct{}
	FinishMsg struct {
		Summary *app.Summary
		Err     error
	}
)

// counter tracks the frames written for one media type
type counter struct {
	frames  int
	samples int64
	bytes   int64
	lastPTS string
}

// Model represents the TUI state
type Model struct {
	input    string
	backend  string
	streams  int
	selected []app.Selection

	video counter
	audio counter

	phase        Phase
	err          string
	instructions string

	// Set when the user asked to quit before the driver finished
	aborted bool
}

// NewModel creates a model for one run
func NewModel(input, backend string) Model {
	return Model{
		input:   input,
		backend: backend,
		phase:   PhaseProbing,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.phase != PhaseDone && m.phase != PhaseFailed {
				m.aborted = true
			}
			return m, tea.Quit
		}
	case ProbeMsg:
		m.input = msg.Input
		m.streams = len(msg.Streams)
	case StartMsg:
		m.selected = msg.Selected
		m.phase = PhaseDemuxing
	case FrameMsg:
		m.applyFrame(app.FrameEvent(msg))
	case FlushMsg:
		m.phase = PhaseFlushing
	case FinishMsg:
		if msg.Err != nil {
			m.phase = PhaseFailed
			m.err = msg.Err.Error()
		} else {
			m.phase = PhaseDone
			if msg.Summary != nil {
				m.instructions = app.Instructions(msg.Summary)
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyFrame(ev app.FrameEvent) {
	c := &m.video
	if ev.Type == media.Audio {
		c = &m.audio
	}
	c.frames++
	c.samples += int64(ev.NbSamples)
	c.bytes += int64(ev.Bytes)
	c.lastPTS = ev.PTS
}

// Aborted reports whether the user quit before the run finished
func (m Model) Aborted() bool {
	return m.aborted
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Raw Demux"))
	b.WriteString("\n\n")

	field(&b, "Input: ", m.input)
	field(&b, "Backend: ", m.backend)
	field(&b, "Streams: ", fmt.Sprintf("%d", m.streams))
	b.WriteString(headerStyle.Render("Phase: "))
	b.WriteString(m.renderPhase())
	b.WriteString("\n\n")

	for _, s := range m.selected {
		b.WriteString(m.renderSelection(s))
	}

	switch {
	case m.phase == PhaseFailed:
		b.WriteString("\n")
		b.WriteString(failedStyle.Render(m.err))
		b.WriteString("\n")
	case m.phase == PhaseDone:
		b.WriteString("\n")
		b.WriteString(m.instructions)
	default:
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Press 'q' or Ctrl+C to stop"))
		b.WriteString("\n")
	}

	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func (m Model) renderPhase() string {
	switch m.phase {
	case PhaseDone:
		return doneStyle.Render(m.phase.String())
	case PhaseFailed:
		return failedStyle.Render(m.phase.String())
	default:
		return valueStyle.Render(m.phase.String())
	}
}

func (m Model) renderSelection(s app.Selection) string {
	var line string
	switch s.Stream.Type {
	case media.Video:
		line = fmt.Sprintf("  %s #%d (%s) -> %s: %d frames, %s, pts %s",
			s.Stream.Type, s.Stream.Index, s.Stream.Codec, s.Output,
			m.video.frames, formatBytes(m.video.bytes), orNone(m.video.lastPTS))
	case media.Audio:
		line = fmt.Sprintf("  %s #%d (%s) -> %s: %d frames, %d samples, %s, pts %s",
			s.Stream.Type, s.Stream.Index, s.Stream.Codec, s.Output,
			m.audio.frames, m.audio.samples, formatBytes(m.audio.bytes), orNone(m.audio.lastPTS))
	default:
		return ""
	}
	return valueStyle.Render(line) + "\n"
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
