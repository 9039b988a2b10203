// ABOUTME: Ogg Opus source backed by hraban/opus
// ABOUTME: Decodes Ogg Opus files to interleaved 16-bit PCM at 48kHz
package native

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"gopkg.in/hraban/opus.v2"
)

const (
	// libopusfile always decodes at 48kHz
	opusSampleRate = 48000
	// 120ms at 48kHz, the largest Opus frame
	opusMaxFrameSamples = 5760

	oggPageHeaderSize = 27
	opusHeadSize      = 19
)

type opusSource struct {
	file     *os.File
	stream   *opus.Stream
	channels int
	pcm      []int16
	buf      []byte
}

func newOpusSource(path string) (*opusSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	br := bufio.NewReader(f)
	channels, err := probeOpusChannels(br)
	if err != nil {
		f.Close()
		return nil, err
	}

	stream, err := opus.NewStream(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}

	return &opusSource{
		file:     f,
		stream:   stream,
		channels: channels,
		pcm:      make([]int16, opusMaxFrameSamples*channels),
	}, nil
}

// probeOpusChannels reads the channel count from the OpusHead packet in
// the first Ogg page without consuming any input.
func probeOpusChannels(br *bufio.Reader) (int, error) {
	header, err := br.Peek(oggPageHeaderSize)
	if err != nil || !bytes.Equal(header[:4], []byte("OggS")) {
		return 0, errors.New("not an Ogg stream")
	}

	segments := int(header[26])
	page, err := br.Peek(oggPageHeaderSize + segments + opusHeadSize)
	if err != nil {
		return 0, errors.New("truncated Ogg page")
	}

	head := page[oggPageHeaderSize+segments:]
	if !bytes.Equal(head[:8], []byte("OpusHead")) {
		return 0, errors.New("not an Ogg Opus stream")
	}

	channels := int(head[9])
	if channels == 0 {
		return 0, errors.New("opus header declares zero channels")
	}
	return channels, nil
}

func (s *opusSource) Format() media.AudioFormat {
	return media.AudioFormat{
		SampleFormat: media.SampleFormatS16,
		SampleRate:   opusSampleRate,
		Channels:     s.channels,
	}
}

func (s *opusSource) ReadChunk() ([]byte, error) {
	n, err := s.stream.Read(s.pcm)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	s.buf = appendInt16(s.buf[:0], s.pcm[:n*s.channels])
	return s.buf, nil
}

func (s *opusSource) Close() error {
	streamErr := s.stream.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return streamErr
}
