// ABOUTME: Playback instructions for raw output files
// ABOUTME: Builds ffplay command lines describing how to read the raw streams
package app

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

// VideoPlayCommand returns the ffplay invocation for a raw video file
func VideoPlayCommand(f media.VideoFormat, path string) string {
	return fmt.Sprintf("ffplay -f rawvideo -pix_fmt %s -video_size %dx%d %s",
		f.PixelFormat, f.Width, f.Height, path)
}

// AudioPlayback describes how the raw audio file was written
type AudioPlayback struct {
	// Planar is set when only the first channel was kept
	Planar    bool
	RawFormat string
	Channels  int
	Command   string
}

// AudioPlayCommand returns the ffplay invocation for a raw audio file.
// Planar sources were reduced to their first channel, so they play as a
// mono stream of the packed twin format.
func AudioPlayCommand(f media.AudioFormat, path string, order binary.ByteOrder) (AudioPlayback, error) {
	play := AudioPlayback{
		Channels: f.Channels,
	}

	sampleFormat := f.SampleFormat
	if sampleFormat.IsPlanar() {
		play.Planar = true
		sampleFormat = sampleFormat.Packed()
		play.Channels = 1
	}

	name, err := media.RawFormatName(sampleFormat, order)
	if err != nil {
		return play, err
	}

	play.RawFormat = name
	play.Command = fmt.Sprintf("ffplay -f %s -ac %d -ar %d %s", name, play.Channels, f.SampleRate, path)
	return play, nil
}
