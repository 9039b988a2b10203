// ABOUTME: Machine-readable run report
// ABOUTME: Records a run through the driver's observer and writes it as YAML or JSON
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Resonate-Protocol/rawdemux/internal/app"
	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Report describes one run
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Input      string       `json:"input" yaml:"input"`
	Backend    string       `json:"backend" yaml:"backend"`
	Streams    int          `json:"streams" yaml:"streams"`
	Video      *VideoReport `json:"video,omitempty" yaml:"video,omitempty"`
	Audio      *AudioReport `json:"audio,omitempty" yaml:"audio,omitempty"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// VideoReport describes the raw video output
type VideoReport struct {
	Stream      int    `json:"stream" yaml:"stream"`
	Codec       string `json:"codec" yaml:"codec"`
	PixelFormat string `json:"pixel_format" yaml:"pixel_format"`
	Width       int    `json:"width" yaml:"width"`
	Height      int    `json:"height" yaml:"height"`
	Output      string `json:"output" yaml:"output"`
	Frames      int    `json:"frames" yaml:"frames"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
	PlayCommand string `json:"play_command,omitempty" yaml:"play_command,omitempty"`
}

// AudioReport describes the raw audio output
type AudioReport struct {
	Stream       int    `json:"stream" yaml:"stream"`
	Codec        string `json:"codec" yaml:"codec"`
	SampleFormat string `json:"sample_format" yaml:"sample_format"`
	SampleRate   int    `json:"sample_rate" yaml:"sample_rate"`
	Channels     int    `json:"channels" yaml:"channels"`
	Output       string `json:"output" yaml:"output"`
	Frames       int    `json:"frames" yaml:"frames"`
	Bytes        int64  `json:"bytes" yaml:"bytes"`
	Planar       bool   `json:"planar" yaml:"planar"`
	RawFormat    string `json:"raw_format,omitempty" yaml:"raw_format,omitempty"`
	RawChannels  int    `json:"raw_channels,omitempty" yaml:"raw_channels,omitempty"`
	PlayCommand  string `json:"play_command,omitempty" yaml:"play_command,omitempty"`
}

// Recorder builds a Report from driver progress. Failed runs keep the
// counts reached before the error.
type Recorder struct {
	report Report
	now    func() time.Time
}

// NewRecorder starts a report with a fresh run ID
func NewRecorder(input, backend string) *Recorder {
	return newRecorder(input, backend, time.Now)
}

func newRecorder(input, backend string, now func() time.Time) *Recorder {
	return &Recorder{
		report: Report{
			RunID:     uuid.New().String(),
			StartedAt: now().UTC(),
			Input:     input,
			Backend:   backend,
		},
		now: now,
	}
}

func (r *Recorder) OnProbe(input string, streams []media.StreamInfo) {
	r.report.Input = input
	r.report.Streams = len(streams)
}

func (r *Recorder) OnStart(_ string, selected []app.Selection) {
	for _, s := range selected {
		switch s.Stream.Type {
		case media.Video:
			r.report.Video = videoReport(s.Stream, s.Stream.Video, s.Output)
		case media.Audio:
			r.report.Audio = audioReport(s.Stream, s.Stream.Audio, s.Output)
		}
	}
}

func (r *Recorder) OnFrame(ev app.FrameEvent) {
	switch {
	case ev.Type == media.Video && r.report.Video != nil:
		r.report.Video.Frames++
		r.report.Video.Bytes += int64(ev.Bytes)
	case ev.Type == media.Audio && r.report.Audio != nil:
		r.report.Audio.Frames++
		r.report.Audio.Bytes += int64(ev.Bytes)
	}
}

func (r *Recorder) OnFlush() {}

func (r *Recorder) OnFinish(summary *app.Summary, err error) {
	r.report.FinishedAt = r.now().UTC()
	if err != nil {
		r.report.Error = err.Error()
		return
	}
	if summary == nil {
		return
	}

	if v := summary.Video; v != nil {
		vr := videoReport(v.Stream, v.Format, v.Output)
		vr.Frames = v.Frames
		vr.Bytes = v.Bytes
		vr.PlayCommand = v.PlayCommand
		r.report.Video = vr
	}

	if a := summary.Audio; a != nil {
		ar := audioReport(a.Stream, a.Format, a.Output)
		ar.Frames = a.Frames
		ar.Bytes = a.Bytes
		ar.Planar = a.Planar
		ar.RawFormat = a.RawFormat
		ar.RawChannels = a.RawChannels
		ar.PlayCommand = a.PlayCommand
		r.report.Audio = ar
	}
}

// Report returns the report recorded so far
func (r *Recorder) Report() Report {
	return r.report
}

func videoReport(s media.StreamInfo, f media.VideoFormat, output string) *VideoReport {
	return &VideoReport{
		Stream:      s.Index,
		Codec:       s.Codec,
		PixelFormat: f.PixelFormat,
		Width:       f.Width,
		Height:      f.Height,
		Output:      output,
	}
}

func audioReport(s media.StreamInfo, f media.AudioFormat, output string) *AudioReport {
	return &AudioReport{
		Stream:       s.Index,
		Codec:        s.Codec,
		SampleFormat: f.SampleFormat.String(),
		SampleRate:   f.SampleRate,
		Channels:     f.Channels,
		Output:       output,
		Planar:       f.SampleFormat.IsPlanar(),
	}
}

// Format is a report encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from the file extension
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes the report to w
func Encode(w io.Writer, rep Report, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

// Write stores the report at path in the format its extension names
func Write(path string, rep Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report %s: %w", path, err)
	}

	if err := Encode(f, rep, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var _ app.Observer = (*Recorder)(nil)
