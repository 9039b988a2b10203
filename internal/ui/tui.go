// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and feeds it driver progress
package ui

import (
	"io"

	"github.com/Resonate-Protocol/rawdemux/internal/app"
	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	tea "github.com/charmbracelet/bubbletea"
)

// Progress renders driver progress. It implements app.Observer; the
// driver calls it from its own goroutine while Run owns the terminal.
type Progress struct {
	program *tea.Program
}

// NewProgress creates the progress view. A nil output uses the terminal.
func NewProgress(input, backend string, output io.Writer) *Progress {
	opts := []tea.ProgramOption{}
	if output != nil {
		opts = append(opts, tea.WithOutput(output), tea.WithInput(nil))
	}
	return &Progress{
		program: tea.NewProgram(NewModel(input, backend), opts...),
	}
}

// Run blocks until the run finishes or the user quits. It reports
// whether the user quit early.
func (p *Progress) Run() (aborted bool, err error) {
	final, err := p.program.Run()
	if err != nil {
		return false, err
	}
	if m, ok := final.(Model); ok {
		return m.Aborted(), nil
	}
	return false, nil
}

// Stop quits the program without waiting for a finish event
func (p *Progress) Stop() {
	p.program.Quit()
}

func (p *Progress) OnProbe(input string, streams []media.StreamInfo) {
	p.program.Send(ProbeMsg{Input: input, Streams: streams})
}

func (p *Progress) OnStart(_ string, selected []app.Selection) {
	p.program.Send(StartMsg{Selected: selected})
}

func (p *Progress) OnFrame(ev app.FrameEvent) {
	p.program.Send(FrameMsg(ev))
}

func (p *Progress) OnFlush() {
	p.program.Send(FlushMsg{})
}

func (p *Progress) OnFinish(summary *app.Summary, err error) {
	p.program.Send(FinishMsg{Summary: summary, Err: err})
}

var _ app.Observer = (*Progress)(nil)
