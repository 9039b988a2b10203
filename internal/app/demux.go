// ABOUTME: Raw demuxing driver
// ABOUTME: Opens the input, picks streams, decodes packets and writes raw output files
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
	"github.com/sirupsen/logrus"
)

// Config holds demuxing configuration
type Config struct {
	Input       string
	VideoOutput string
	AudioOutput string
	Backend     string

	// Refcount additionally calls Release on each frame once it is
	// written. Backends that reuse one frame release it themselves, so it
	// is kept for compatibility.
	Refcount bool

	// Media types to extract; a requested type missing from the input is fatal
	Video bool
	Audio bool
}

// Demux runs one input through its decoders into raw files
type Demux struct {
	config   Config
	backend  decode.Backend
	log      logrus.FieldLogger
	observer Observer

	demuxer decode.Demuxer
	video   *videoSink
	audio   *audioSink
}

// New creates a driver for config. It fails if the backend is unknown.
func New(config Config, logger logrus.FieldLogger, observer Observer) (*Demux, error) {
	backend, err := decode.Lookup(config.Backend)
	if err != nil {
		return nil, err
	}
	if !config.Video && !config.Audio {
		return nil, errors.New("nothing to do: both video and audio are disabled")
	}
	if observer == nil {
		observer = NopObserver{}
	}

	return &Demux{
		config:   config,
		backend:  backend,
		log:      logger.WithField("input", config.Input),
		observer: observer,
	}, nil
}

// Run demuxes and decodes the whole input. Cancelling ctx stops it between
// packets. Every resource is released before it returns, on success and
// on failure.
func (d *Demux) Run(ctx context.Context) (summary *Summary, err error) {
	defer func() {
		if cerr := d.cleanup(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			summary = nil
		}
		d.observer.OnFinish(summary, err)
	}()

	if err := d.open(); err != nil {
		return nil, err
	}

	if err := d.demux(ctx); err != nil {
		return nil, err
	}

	if err := d.flush(); err != nil {
		return nil, err
	}

	d.log.Info("Demuxing succeeded")
	return d.summary(), nil
}

func (d *Demux) open() error {
	demuxer, err := d.backend.Open(d.config.Input)
	if err != nil {
		return err
	}
	d.demuxer = demuxer

	streams := demuxer.Streams()
	if dumper, ok := demuxer.(decode.FormatDumper); ok {
		dumper.DumpFormat()
	} else {
		d.dumpStreams(streams)
	}
	d.observer.OnProbe(d.config.Input, streams)

	if d.config.Video {
		stream, decoder, err := d.openDecoder(media.Video)
		if err != nil {
			return err
		}
		d.video, err = newVideoSink(stream, decoder, d.config.VideoOutput)
		if err != nil {
			decoder.Close()
			return err
		}
	}

	if d.config.Audio {
		stream, decoder, err := d.openDecoder(media.Audio)
		if err != nil {
			return err
		}
		d.audio, err = newAudioSink(stream, decoder, d.config.AudioOutput)
		if err != nil {
			decoder.Close()
			return err
		}
	}

	var selected []Selection
	if d.video != nil {
		selected = append(selected, Selection{Stream: d.video.stream, Output: d.video.path})
	}
	if d.audio != nil {
		selected = append(selected, Selection{Stream: d.audio.stream, Output: d.audio.path})
	}
	d.observer.OnStart(d.config.Input, selected)
	return nil
}

func (d *Demux) openDecoder(t media.MediaType) (media.StreamInfo, decode.Decoder, error) {
	stream, err := d.demuxer.BestStream(t)
	switch {
	case errors.Is(err, media.ErrStreamNotFound):
		return stream, nil, fmt.Errorf("could not find %s stream in input file '%s': %w", t, d.config.Input, err)
	case errors.Is(err, media.ErrDecoderNotFound):
		return stream, nil, fmt.Errorf("failed to find %s codec: %w", t, err)
	case err != nil:
		return stream, nil, err
	}

	decoder, err := d.demuxer.OpenDecoder(stream)
	if err != nil {
		return stream, nil, err
	}

	d.log.WithFields(logrus.Fields{
		"stream": stream.Index,
		"type":   t.String(),
		"codec":  stream.Codec,
	}).Debug("Opened decoder")

	return decoder.Stream(), decoder, nil
}

func (d *Demux) dumpStreams(streams []media.StreamInfo) {
	for _, s := range streams {
		fields := logrus.Fields{
			"stream":  s.Index,
			"type":    s.Type.String(),
			"codec":   s.Codec,
			"default": s.Default,
		}
		switch s.Type {
		case media.Video:
			fields["format"] = s.Video.String()
		case media.Audio:
			fields["format"] = s.Audio.String()
		}
		if s.BitRate > 0 {
			fields["bitrate"] = s.BitRate
		}
		d.log.WithFields(fields).Info("Input stream")
	}
}

// demux reads packets in container order and decodes each one fully
func (d *Demux) demux(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("demuxing interrupted: %w", err)
		}

		pkt, err := d.demuxer.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = d.decodePacket(pkt)
		pkt.Release()
		if err != nil {
			return err
		}
	}
}

func (d *Demux) decodePacket(pkt decode.Packet) error {
	s := d.sinkFor(pkt.StreamIndex())
	if s == nil {
		return nil
	}

	// A packet may hold several frames or need several calls
	for pkt.Size() > 0 {
		n, err := s.decoder().Decode(pkt, func(f media.Frame) error {
			return d.write(s, f, false)
		})
		if err != nil {
			return err
		}
		if n <= 0 {
			d.log.WithField("bytes", pkt.Size()).Warn("Decoder made no progress, dropping rest of packet")
			return nil
		}
		pkt.Advance(n)
	}
	return nil
}

// flush drains frames the decoders still hold after the last packet
func (d *Demux) flush() error {
	d.observer.OnFlush()

	for _, s := range d.sinks() {
		for {
			got := 0
			_, err := s.decoder().Decode(nil, func(f media.Frame) error {
				got++
				return d.write(s, f, true)
			})
			if err != nil {
				return err
			}
			if got == 0 {
				break
			}
		}
	}
	return nil
}

func (d *Demux) write(s sink, f media.Frame, cached bool) error {
	ev, err := s.writeFrame(f)
	skipped := errors.Is(err, errSkipFrame)
	if err != nil && !skipped {
		return err
	}
	if d.config.Refcount {
		f.Release()
	}
	if skipped {
		d.log.WithField("pts", f.PTS()).Debug("Skipping empty frame")
		return nil
	}

	ev.Cached = cached
	d.observer.OnFrame(ev)
	return nil
}

func (d *Demux) sinkFor(streamIndex int) sink {
	if d.video != nil && d.video.stream.Index == streamIndex {
		return d.video
	}
	if d.audio != nil && d.audio.stream.Index == streamIndex {
		return d.audio
	}
	return nil
}

func (d *Demux) sinks() []sink {
	var out []sink
	if d.video != nil {
		out = append(out, d.video)
	}
	if d.audio != nil {
		out = append(out, d.audio)
	}
	return out
}

func (d *Demux) summary() *Summary {
	summary := &Summary{
		Input:   d.config.Input,
		Backend: d.config.Backend,
	}

	if d.video != nil {
		summary.Video = d.video.result()
	}

	if d.audio != nil {
		result, err := d.audio.result(media.HostByteOrder())
		if err != nil {
			// The raw file is complete; only the ffplay hint is unavailable
			d.log.WithError(err).Warn("No playback command for audio output")
		}
		summary.Audio = result
	}

	return summary
}

func (d *Demux) cleanup() error {
	var errs []error
	if d.video != nil {
		errs = append(errs, d.video.close())
	}
	if d.audio != nil {
		errs = append(errs, d.audio.close())
	}
	if d.demuxer != nil {
		errs = append(errs, d.demuxer.Close())
		d.demuxer = nil
	}
	return errors.Join(errs...)
}
