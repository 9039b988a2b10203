// ABOUTME: MP3 source backed by go-mp3
// ABOUTME: Reads interleaved 16-bit stereo PCM one MPEG frame at a time
package native

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to s16 stereo
const (
	mp3Channels      = 2
	mp3FrameSamples  = 1152
	mp3BytesPerFrame = mp3FrameSamples * mp3Channels * 2
)

type mp3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
}

func newMP3Source(path string) (*mp3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &mp3Source{
		file:    f,
		decoder: decoder,
		buf:     make([]byte, mp3BytesPerFrame),
	}, nil
}

func (s *mp3Source) Format() media.AudioFormat {
	return media.AudioFormat{
		SampleFormat: media.SampleFormatS16,
		SampleRate:   s.decoder.SampleRate(),
		Channels:     mp3Channels,
	}
}

func (s *mp3Source) ReadChunk() ([]byte, error) {
	n, err := io.ReadFull(s.decoder, s.buf)
	if n > 0 {
		// Keep whole stereo samples only
		chunk := s.buf[:n-n%(mp3Channels*2)]
		littleToHost16(chunk)
		return chunk, nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("mp3 decode error: %w", err)
}

func (s *mp3Source) Close() error {
	return s.file.Close()
}
