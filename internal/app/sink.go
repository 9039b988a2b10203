// ABOUTME: Raw video and audio output files
// ABOUTME: Validates decoded frames and appends their unpadded payload
package app

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
)

const outputBufferSize = 1 << 20

// errSkipFrame marks a frame that carries nothing to write
var errSkipFrame = errors.New("frame has no data")

type sink interface {
	decoder() decode.Decoder
	writeFrame(f media.Frame) (FrameEvent, error)
	close() error
}

// rawFile is a buffered output file
type rawFile struct {
	path  string
	file  *os.File
	w     *bufio.Writer
	bytes int64
}

func createRawFile(path string) (*rawFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not open destination file %s: %w", path, err)
	}
	return &rawFile{
		path: path,
		file: f,
		w:    bufio.NewWriterSize(f, outputBufferSize),
	}, nil
}

func (r *rawFile) write(p []byte) error {
	n, err := r.w.Write(p)
	r.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("could not write to %s: %w", r.path, err)
	}
	return nil
}

func (r *rawFile) close() error {
	if r.file == nil {
		return nil
	}
	flushErr := r.w.Flush()
	closeErr := r.file.Close()
	r.file = nil
	if flushErr != nil {
		return fmt.Errorf("could not write to %s: %w", r.path, flushErr)
	}
	return closeErr
}

// FormatChangeError reports a video frame whose geometry differs from the
// stream's. Raw video cannot represent the change.
type FormatChangeError struct {
	Old media.VideoFormat
	New media.VideoFormat
}

func (e *FormatChangeError) Error() string {
	return fmt.Sprintf("width, height and pixel format have to be constant in a rawvideo file, "+
		"but the width, height or pixel format of the input video changed:\n"+
		"old: width = %d, height = %d, format = %s\n"+
		"new: width = %d, height = %d, format = %s",
		e.Old.Width, e.Old.Height, e.Old.PixelFormat,
		e.New.Width, e.New.Height, e.New.PixelFormat)
}

type videoSink struct {
	stream media.StreamInfo
	dec    decode.Decoder
	out    *rawFile
	path   string
	format media.VideoFormat
	buf    []byte
	frames int
}

func newVideoSink(stream media.StreamInfo, dec decode.Decoder, path string) (*videoSink, error) {
	out, err := createRawFile(path)
	if err != nil {
		return nil, err
	}
	return &videoSink{
		stream: stream,
		dec:    dec,
		out:    out,
		path:   path,
		format: stream.Video,
	}, nil
}

func (s *videoSink) decoder() decode.Decoder { return s.dec }

func (s *videoSink) writeFrame(f media.Frame) (FrameEvent, error) {
	got := media.VideoFormat{
		PixelFormat: f.PixelFormat(),
		Width:       f.Width(),
		Height:      f.Height(),
	}

	// Some decoders only learn the geometry from the first frame
	if !known(s.format) {
		s.format = got
	}
	if got != s.format {
		return FrameEvent{}, &FormatChangeError{Old: s.format, New: got}
	}

	// Sized once; the geometry cannot change afterwards
	if s.buf == nil {
		size, err := f.ImageSize()
		if err != nil {
			return FrameEvent{}, fmt.Errorf("could not allocate raw video buffer: %w", err)
		}
		s.buf = make([]byte, size)
	}

	n, err := f.CopyImage(s.buf)
	if err != nil {
		return FrameEvent{}, err
	}
	if err := s.out.write(s.buf[:n]); err != nil {
		return FrameEvent{}, err
	}

	ev := FrameEvent{
		Type:   media.Video,
		Number: s.frames,
		PTS:    media.FormatTimestamp(f.PTS(), s.stream.TimeBase),
		Bytes:  n,
	}
	s.frames++
	return ev, nil
}

func known(f media.VideoFormat) bool {
	return f.Width > 0 && f.Height > 0 && f.PixelFormat != "" && f.PixelFormat != "none"
}

func (s *videoSink) result() *VideoResult {
	return &VideoResult{
		Stream:      s.stream,
		Format:      s.format,
		Output:      s.path,
		Frames:      s.frames,
		Bytes:       s.out.bytes,
		PlayCommand: VideoPlayCommand(s.format, s.path),
	}
}

func (s *videoSink) close() error {
	var decErr error
	if s.dec != nil {
		decErr = s.dec.Close()
		s.dec = nil
	}
	return errors.Join(decErr, s.out.close())
}

type audioSink struct {
	stream media.StreamInfo
	dec    decode.Decoder
	out    *rawFile
	path   string
	format media.AudioFormat
	buf    []byte
	frames int
}

func newAudioSink(stream media.StreamInfo, dec decode.Decoder, path string) (*audioSink, error) {
	out, err := createRawFile(path)
	if err != nil {
		return nil, err
	}
	return &audioSink{
		stream: stream,
		dec:    dec,
		out:    out,
		path:   path,
		format: stream.Audio,
	}, nil
}

func (s *audioSink) decoder() decode.Decoder { return s.dec }

// writeFrame appends the first plane of the frame. Planar formats keep
// only the first channel; packed formats keep every interleaved channel.
// Frames without samples are skipped.
func (s *audioSink) writeFrame(f media.Frame) (FrameEvent, error) {
	sampleFormat := f.SampleFormat()
	bps := sampleFormat.BytesPerSample()
	if bps == 0 {
		return FrameEvent{}, fmt.Errorf("unsupported sample format: %s", sampleFormat)
	}

	if !s.format.SampleFormat.Valid() {
		s.format.SampleFormat = sampleFormat
	}
	if s.format.SampleRate == 0 {
		s.format.SampleRate = f.SampleRate()
	}
	if s.format.Channels == 0 {
		s.format.Channels = f.Channels()
	}

	nbSamples := f.NbSamples()
	if nbSamples == 0 {
		return FrameEvent{}, errSkipFrame
	}
	total := nbSamples * bps * f.Channels()
	unpadded := nbSamples * bps
	if !sampleFormat.IsPlanar() {
		unpadded = total
	}

	if cap(s.buf) < total {
		s.buf = make([]byte, total)
	}
	if _, err := f.CopySamples(s.buf[:total]); err != nil {
		return FrameEvent{}, err
	}
	if err := s.out.write(s.buf[:unpadded]); err != nil {
		return FrameEvent{}, err
	}

	ev := FrameEvent{
		Type:      media.Audio,
		Number:    s.frames,
		NbSamples: nbSamples,
		PTS:       media.FormatTimestamp(f.PTS(), s.stream.TimeBase),
		Bytes:     unpadded,
	}
	s.frames++
	return ev, nil
}

func (s *audioSink) result(order binary.ByteOrder) (*AudioResult, error) {
	result := &AudioResult{
		Stream: s.stream,
		Format: s.format,
		Output: s.path,
		Frames: s.frames,
		Bytes:  s.out.bytes,
	}

	play, err := AudioPlayCommand(s.format, s.path, order)
	result.Planar = play.Planar
	result.RawFormat = play.RawFormat
	result.RawChannels = play.Channels
	result.PlayCommand = play.Command
	return result, err
}

func (s *audioSink) close() error {
	var decErr error
	if s.dec != nil {
		decErr = s.dec.Close()
		s.dec = nil
	}
	return errors.Join(decErr, s.out.close())
}
