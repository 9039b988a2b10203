// ABOUTME: Tests for native sample packing and Ogg Opus probing
// ABOUTME: Tests planar packing, interleaved packing and OpusHead parsing
package native

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

func TestAppendPlanarS16(t *testing.T) {
	planes := [][]int32{
		{1, -1},
		{2, 3},
	}

	out := appendPlanar(nil, planes, 2, 16, media.SampleFormatS16P)
	if len(out) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(out))
	}

	got := make([]int16, 4)
	for i := range got {
		got[i] = int16(hostOrder.Uint16(out[i*2:]))
	}
	expected := []int16{1, -1, 2, 3}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestAppendPlanarLeftJustifies(t *testing.T) {
	// 24-bit samples go into the top of a 32-bit container
	planes := [][]int32{{0x123456}}
	out := appendPlanar(nil, planes, 1, 24, media.SampleFormatS32P)

	if v := hostOrder.Uint32(out); v != 0x12345600 {
		t.Errorf("expected 0x12345600, got %#x", v)
	}

	// 12-bit samples into 16 bits
	out = appendPlanar(nil, [][]int32{{-1}}, 1, 12, media.SampleFormatS16P)
	if v := int16(hostOrder.Uint16(out)); v != -16 {
		t.Errorf("expected -16, got %d", v)
	}
}

func TestAppendPlanarRespectsCount(t *testing.T) {
	planes := [][]int32{{1, 2, 3, 4}}
	out := appendPlanar(nil, planes, 2, 16, media.SampleFormatS16P)
	if len(out) != 4 {
		t.Errorf("expected only 2 samples (4 bytes), got %d bytes", len(out))
	}
}

func TestAppendInt16(t *testing.T) {
	out := appendInt16(nil, []int16{256, -2})
	if len(out) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(out))
	}
	if int16(hostOrder.Uint16(out)) != 256 || int16(hostOrder.Uint16(out[2:])) != -2 {
		t.Errorf("unexpected packing: %v", out)
	}
}

func oggOpusPage(channels byte) []byte {
	page := []byte("OggS")
	page = append(page, 0x00, 0x02)        // version, BOS flag
	page = append(page, make([]byte, 8)...) // granule position
	page = append(page, make([]byte, 4)...) // serial
	page = append(page, make([]byte, 4)...) // sequence
	page = append(page, make([]byte, 4)...) // checksum
	page = append(page, 1, 19)              // one segment of 19 bytes

	head := []byte("OpusHead")
	head = append(head, 1, channels)
	head = append(head, 0x38, 0x01)             // pre-skip
	head = append(head, 0x80, 0xbb, 0x00, 0x00) // input sample rate
	head = append(head, 0x00, 0x00, 0x00)       // gain, mapping family
	return append(page, head...)
}

func TestProbeOpusChannels(t *testing.T) {
	data := oggOpusPage(2)
	br := bufio.NewReader(bytes.NewReader(data))

	channels, err := probeOpusChannels(br)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if channels != 2 {
		t.Errorf("expected 2 channels, got %d", channels)
	}

	// Probing must not consume input
	if br.Buffered() != len(data) {
		t.Errorf("expected %d buffered bytes, got %d", len(data), br.Buffered())
	}
}

func TestProbeOpusChannels_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not ogg", bytes.Repeat([]byte{'x'}, 64)},
		{"truncated", oggOpusPage(2)[:30]},
		{"vorbis", append(oggOpusPage(2)[:28], []byte("\x01vorbis\x00\x00\x00\x00\x02\x44\xac\x00\x00\x00\x00")...)},
		{"zero channels", oggOpusPage(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReader(bytes.NewReader(tt.data))
			if _, err := probeOpusChannels(br); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
