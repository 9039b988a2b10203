// ABOUTME: Tests for the FFmpeg decode path
// ABOUTME: Decodes generated WAV and Y4M files through libav and checks the copied bytes
package ffmpeg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
)

// Upper bound on drain calls before the flush is considered stuck
const maxFlushCalls = 64

// writeWAV writes a canonical 16-bit PCM WAV file
func writeWAV(t *testing.T, path string, channels, sampleRate int, data []byte) {
	t.Helper()

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&b, binary.LittleEndian, uint16(channels*2))
	binary.Write(&b, binary.LittleEndian, uint16(16))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)

	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// writeY4M writes yuv420p pictures in a YUV4MPEG2 stream
func writeY4M(t *testing.T, path string, width, height int, pictures [][]byte) {
	t.Helper()

	var b bytes.Buffer
	fmt.Fprintf(&b, "YUV4MPEG2 W%d H%d F25:1 Ip A1:1 C420jpeg\n", width, height)
	for _, p := range pictures {
		b.WriteString("FRAME\n")
		b.Write(p)
	}

	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func openStream(t *testing.T, path string, mt media.MediaType) (decode.Demuxer, decode.Decoder) {
	t.Helper()

	d, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	t.Cleanup(func() { d.Close() })

	stream, err := d.BestStream(mt)
	if err != nil {
		t.Fatalf("failed to find %s stream: %v", mt, err)
	}

	dec, err := d.OpenDecoder(stream)
	if err != nil {
		t.Fatalf("failed to open %s decoder: %v", mt, err)
	}
	t.Cleanup(func() { dec.Close() })

	return d, dec
}

// decodeAll feeds every packet to dec, then drains it. It returns the
// number of frames seen while draining.
func decodeAll(t *testing.T, d decode.Demuxer, dec decode.Decoder, emit func(media.Frame) error) int {
	t.Helper()

	for {
		pkt, err := d.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}

		for pkt.Size() > 0 {
			n, err := dec.Decode(pkt, emit)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if n <= 0 {
				t.Fatalf("decoder made no progress with %d bytes left", pkt.Size())
			}
			pkt.Advance(n)
		}
		pkt.Release()
	}

	flushed := 0
	for i := 0; ; i++ {
		if i == maxFlushCalls {
			t.Fatal("flush did not end")
		}
		got := 0
		if _, err := dec.Decode(nil, func(f media.Frame) error {
			got++
			return emit(f)
		}); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		if got == 0 {
			break
		}
		flushed += got
	}
	return flushed
}

func TestDecodeWAV(t *testing.T) {
	const (
		channels   = 2
		sampleRate = 8000
		samples    = 3000
	)

	data := make([]byte, samples*channels*2)
	for i := range data {
		data[i] = byte(i * 7)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, channels, sampleRate, data)

	d, dec := openStream(t, path, media.Audio)

	if _, err := d.BestStream(media.Video); !errors.Is(err, media.ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound for video, got %v", err)
	}

	s := dec.Stream()
	if s.Audio.SampleFormat != media.SampleFormatS16 || s.Audio.SampleRate != sampleRate || s.Audio.Channels != channels {
		t.Errorf("unexpected audio format: %v", s.Audio)
	}

	var got []byte
	decodeAll(t, d, dec, func(f media.Frame) error {
		if f.SampleFormat() != media.SampleFormatS16 {
			return fmt.Errorf("unexpected sample format %s", f.SampleFormat())
		}
		buf := make([]byte, f.NbSamples()*f.Channels()*f.SampleFormat().BytesPerSample())
		n, err := f.CopySamples(buf)
		if err != nil {
			return err
		}
		got = append(got, buf[:n]...)
		return nil
	})

	if !bytes.Equal(got, data) {
		t.Errorf("expected %d decoded bytes matching the input, got %d", len(data), len(got))
	}

	// Drained decoders stay drained
	calls := 0
	if _, err := dec.Decode(nil, func(media.Frame) error { calls++; return nil }); err != nil {
		t.Errorf("unexpected error after drain: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no frames after drain, got %d", calls)
	}
}

func TestDecodeOddWidthVideo(t *testing.T) {
	const (
		width  = 5
		height = 3
	)
	// Chroma planes are 3x2 for a 5x3 picture
	const pictureSize = width*height + 2*(3*2)

	pictures := make([][]byte, 2)
	for i := range pictures {
		p := make([]byte, pictureSize)
		for j := range p {
			p[j] = byte(16 + i*64 + j)
		}
		pictures[i] = p
	}

	path := filepath.Join(t.TempDir(), "odd.y4m")
	writeY4M(t, path, width, height, pictures)

	d, dec := openStream(t, path, media.Video)

	var got [][]byte
	decodeAll(t, d, dec, func(f media.Frame) error {
		if f.Width() != width || f.Height() != height || f.PixelFormat() != "yuv420p" {
			return fmt.Errorf("unexpected picture %dx%d %s", f.Width(), f.Height(), f.PixelFormat())
		}
		size, err := f.ImageSize()
		if err != nil {
			return err
		}
		if size != pictureSize {
			return fmt.Errorf("expected image size %d, got %d", pictureSize, size)
		}
		buf := make([]byte, size)
		if _, err := f.CopyImage(buf); err != nil {
			return err
		}
		got = append(got, buf)
		return nil
	})

	if len(got) != len(pictures) {
		t.Fatalf("expected %d pictures, got %d", len(pictures), len(got))
	}
	for i := range pictures {
		if !bytes.Equal(got[i], pictures[i]) {
			t.Errorf("picture %d: expected %v, got %v", i, pictures[i], got[i])
		}
	}
}

func TestDumpFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	writeWAV(t, path, 1, 8000, make([]byte, 64))

	d, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer d.Close()

	dumper, ok := d.(decode.FormatDumper)
	if !ok {
		t.Fatal("expected the ffmpeg demuxer to dump its input format")
	}
	dumper.DumpFormat()
}
