// ABOUTME: Progress reporting for the demuxing driver
// ABOUTME: Defines events, run summaries and the console observer
package app

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

// Selection is a stream chosen for decoding and its output file
type Selection struct {
	Stream media.StreamInfo
	Output string
}

// FrameEvent describes one written frame
type FrameEvent struct {
	Type      media.MediaType
	Number    int
	NbSamples int
	PTS       string
	Bytes     int
	// Cached is set for frames drained from a decoder after the last packet
	Cached bool
}

// VideoResult summarizes the raw video output
type VideoResult struct {
	Stream      media.StreamInfo
	Format      media.VideoFormat
	Output      string
	Frames      int
	Bytes       int64
	PlayCommand string
}

// AudioResult summarizes the raw audio output
type AudioResult struct {
	Stream      media.StreamInfo
	Format      media.AudioFormat
	Output      string
	Frames      int
	Bytes       int64
	Planar      bool
	RawFormat   string
	RawChannels int
	PlayCommand string
}

// Summary is the outcome of a successful run
type Summary struct {
	Input   string
	Backend string
	Video   *VideoResult
	Audio   *AudioResult
}

// Observer receives progress from the driver. Calls come from the
// goroutine running the driver.
type Observer interface {
	OnProbe(input string, streams []media.StreamInfo)
	OnStart(input string, selected []Selection)
	OnFrame(ev FrameEvent)
	OnFlush()
	OnFinish(summary *Summary, err error)
}

// NopObserver ignores all progress
type NopObserver struct{}

func (NopObserver) OnProbe(string, []media.StreamInfo) {}
func (NopObserver) OnStart(string, []Selection)        {}
func (NopObserver) OnFrame(FrameEvent)                 {}
func (NopObserver) OnFlush()                           {}
func (NopObserver) OnFinish(*Summary, error)           {}

// Observers fans progress out to several observers
type Observers []Observer

func (o Observers) OnProbe(input string, streams []media.StreamInfo) {
	for _, obs := range o {
		obs.OnProbe(input, streams)
	}
}

func (o Observers) OnStart(input string, selected []Selection) {
	for _, obs := range o {
		obs.OnStart(input, selected)
	}
}

func (o Observers) OnFrame(ev FrameEvent) {
	for _, obs := range o {
		obs.OnFrame(ev)
	}
}

func (o Observers) OnFlush() {
	for _, obs := range o {
		obs.OnFlush()
	}
}

func (o Observers) OnFinish(summary *Summary, err error) {
	for _, obs := range o {
		obs.OnFinish(summary, err)
	}
}

// ConsoleObserver prints per-frame lines and playback instructions
type ConsoleObserver struct {
	w io.Writer
}

// NewConsoleObserver creates an observer printing to w
func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

func (c *ConsoleObserver) OnProbe(string, []media.StreamInfo) {}

func (c *ConsoleObserver) OnStart(input string, selected []Selection) {
	for _, s := range selected {
		fmt.Fprintf(c.w, "Demuxing %s from file '%s' into '%s'\n", s.Stream.Type, input, s.Output)
	}
}

func (c *ConsoleObserver) OnFrame(ev FrameEvent) {
	cached := ""
	if ev.Cached {
		cached = "(cached)"
	}

	switch ev.Type {
	case media.Video:
		fmt.Fprintf(c.w, "video_frame%s n:%d pts:%s\n", cached, ev.Number, ev.PTS)
	case media.Audio:
		fmt.Fprintf(c.w, "audio_frame%s n:%d nb_samples:%d pts:%s\n", cached, ev.Number, ev.NbSamples, ev.PTS)
	}
}

func (c *ConsoleObserver) OnFlush() {}

func (c *ConsoleObserver) OnFinish(summary *Summary, err error) {
	if err != nil || summary == nil {
		return
	}
	fmt.Fprint(c.w, Instructions(summary))
}

// Instructions renders the human-readable guide to the raw output files
func Instructions(summary *Summary) string {
	s := "Demuxing succeeded.\n"

	if v := summary.Video; v != nil {
		s += fmt.Sprintf("Play the output video file with the command:\n%s\n", v.PlayCommand)
	}

	if a := summary.Audio; a != nil {
		if a.Planar {
			s += fmt.Sprintf("Warning: the sample format the decoder produced is planar "+
				"(%s). Only the first channel was written.\n", a.Format.SampleFormat)
		}
		if a.PlayCommand != "" {
			s += fmt.Sprintf("Play the output audio file with the command:\n%s\n", a.PlayCommand)
		}
	}

	return s
}
