// ABOUTME: FLAC source backed by mewkiz/flac
// ABOUTME: Emits each FLAC frame as planar PCM, one subframe per plane
package native

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/mewkiz/flac"
)

type flacSource struct {
	file     *os.File
	stream   *flac.Stream
	format   media.AudioFormat
	bitDepth int
	buf      []byte
	planes   [][]int32
}

func newFLACSource(path string) (*flacSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	// Get stream info
	info := stream.Info
	bitDepth := int(info.BitsPerSample)

	sampleFormat := media.SampleFormatS16P
	if bitDepth > 16 {
		sampleFormat = media.SampleFormatS32P
	}

	return &flacSource{
		file:     f,
		stream:   stream,
		bitDepth: bitDepth,
		format: media.AudioFormat{
			SampleFormat: sampleFormat,
			SampleRate:   int(info.SampleRate),
			Channels:     int(info.NChannels),
		},
	}, nil
}

func (s *flacSource) Format() media.AudioFormat {
	return s.format
}

func (s *flacSource) ReadChunk() ([]byte, error) {
	frame, err := s.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("flac decode error: %w", err)
	}

	if len(frame.Subframes) != s.format.Channels {
		return nil, fmt.Errorf("flac frame has %d channels, stream has %d", len(frame.Subframes), s.format.Channels)
	}

	s.planes = s.planes[:0]
	for _, sub := range frame.Subframes {
		s.planes = append(s.planes, sub.Samples)
	}

	s.buf = appendPlanar(s.buf[:0], s.planes, int(frame.BlockSize), s.bitDepth, s.format.SampleFormat)
	return s.buf, nil
}

func (s *flacSource) Close() error {
	return s.file.Close()
}
