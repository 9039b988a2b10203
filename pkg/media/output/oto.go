// ABOUTME: Oto-based raw audio playback
// ABOUTME: Streams a raw PCM file to the default output device
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

const pollInterval = 50 * time.Millisecond

// Oto plays PCM streams through the oto library
type Oto struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int
	format     oto.Format
	log        logrus.FieldLogger
}

// NewOto creates an unopened output
func NewOto(logger logrus.FieldLogger) *Oto {
	return &Oto{log: logger}
}

// Open initializes the output device. oto allows one context per
// process, so a second Open must use the same format.
func (o *Oto) Open(sampleRate, channels int, format oto.Format) error {
	if o.otoCtx != nil {
		if o.sampleRate == sampleRate && o.channels == channels && o.format == format {
			return nil
		}
		return fmt.Errorf("audio output already opened with %dHz %dch", o.sampleRate, o.channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       format,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	o.format = format

	o.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"channels":    channels,
	}).Info("Audio output initialized")

	return nil
}

// Play streams r until it ends or ctx is cancelled
func (o *Oto) Play(ctx context.Context, r io.Reader) error {
	if o.otoCtx == nil {
		return errors.New("output not initialized")
	}

	player := o.otoCtx.NewPlayer(r)
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// Close suspends the device
func (o *Oto) Close() error {
	if o.otoCtx == nil {
		return nil
	}
	return o.otoCtx.Suspend()
}

// PlayFile plays a raw PCM file written by the demuxer
func PlayFile(ctx context.Context, path string, f Format, logger logrus.FieldLogger) error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("invalid playback format: %dHz %dch", f.SampleRate, f.Channels)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer file.Close()

	src, format, err := NewSource(file, f)
	if err != nil {
		return err
	}

	out := NewOto(logger)
	if err := out.Open(f.SampleRate, f.Channels, format); err != nil {
		return err
	}
	defer out.Close()

	logger.WithField("file", path).Info("Playing raw audio")
	return out.Play(ctx, src)
}
